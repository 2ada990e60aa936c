package bot

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/kotae/internal/common"
	"github.com/ternarybob/kotae/internal/interfaces"
	"github.com/ternarybob/kotae/internal/models"
	"github.com/ternarybob/kotae/internal/services/rag"
)

// Built-in commands and buttons. Menu files may not redefine them.
const (
	CommandAsk  = "ask"
	CommandKB   = "kb"
	ButtonRetry = "retry"
	ButtonMore  = "more"
)

var (
	reservedCommands = []string{CommandAsk, CommandKB}
	reservedButtons  = []string{ButtonRetry, ButtonMore}
)

const (
	defaultMoreResults = 10
	maxMoreResults     = 30
)

const (
	msgEmptyQuestion  = "質問内容を入力してください。例: /ask 経費精算の締め日は？"
	msgNoLastQuestion = "前回の質問が見つかりませんでした。もう一度質問してください。"
	msgUnknownCommand = "不明なコマンドです。"
	msgSourcesHeader  = "参照資料:"
	labelRetry        = "もう一度"
	labelMore         = "さらに詳しく"
)

var mentionPattern = regexp.MustCompile(`<@[!&]?[^>\s]+>`)

// Router turns platform-neutral bot events into replies
type Router struct {
	answers  interfaces.AnswerService
	menu     *Menu
	sessions *Sessions
	audit    interfaces.AuditStorage // Optional
	config   common.BotConfig
	logger   arbor.ILogger
}

// NewRouter creates a bot router. menu and audit may be nil.
func NewRouter(
	answers interfaces.AnswerService,
	menu *Menu,
	audit interfaces.AuditStorage,
	config common.BotConfig,
	logger arbor.ILogger,
) *Router {
	if config.MessageLimit <= 0 {
		config.MessageLimit = DefaultMessageLimit
	}
	return &Router{
		answers:  answers,
		menu:     menu,
		sessions: NewSessions(config.SessionTTL),
		audit:    audit,
		config:   config,
		logger:   logger,
	}
}

// Handle routes one event. Answering failures become apology replies; an
// error is returned only for events that cannot be routed at all.
func (r *Router) Handle(ctx context.Context, event models.BotEvent) (*models.BotReply, error) {
	r.logger.Debug().
		Str("kind", string(event.Kind)).
		Str("user_id", event.UserID).
		Str("command", event.Command).
		Str("button_id", event.ButtonID).
		Msg("Bot event received")

	switch event.Kind {
	case models.BotEventMention:
		return r.ask(ctx, event.UserID, lastQuery{
			Query:  stripMentions(event.Text),
			Mode:   models.ParseAnswerMode(r.config.DefaultMode),
			Images: userImages(event.Attachments),
		}), nil

	case models.BotEventCommand:
		return r.handleCommand(ctx, event), nil

	case models.BotEventButton:
		return r.handleButton(ctx, event), nil

	default:
		return nil, fmt.Errorf("unsupported event kind %q", event.Kind)
	}
}

func (r *Router) handleCommand(ctx context.Context, event models.BotEvent) *models.BotReply {
	name := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(event.Command), "/"))

	switch name {
	case CommandAsk, CommandKB:
		mode := models.AnswerModeLenient
		if name == CommandKB {
			mode = models.AnswerModeStrict
		}
		return r.ask(ctx, event.UserID, lastQuery{
			Query:  strings.TrimSpace(event.Text),
			Mode:   mode,
			Images: userImages(event.Attachments),
		})
	}

	if entry, ok := r.menu.Command(name); ok {
		return r.canned(entry)
	}

	r.logger.Info().Str("command", name).Msg("Unknown bot command")
	if entry, ok := r.menu.Command("help"); ok {
		reply := r.canned(entry)
		reply.Messages = append([]string{msgUnknownCommand}, reply.Messages...)
		return reply
	}
	return &models.BotReply{Messages: []string{msgUnknownCommand}}
}

func (r *Router) handleButton(ctx context.Context, event models.BotEvent) *models.BotReply {
	id := strings.ToLower(strings.TrimSpace(event.ButtonID))

	switch id {
	case ButtonRetry, ButtonMore:
		last, ok := r.sessions.last(event.UserID)
		if !ok {
			return &models.BotReply{Messages: []string{msgNoLastQuestion}}
		}
		if id == ButtonMore {
			last.MaxResults = widen(last.MaxResults)
		}
		return r.ask(ctx, event.UserID, last)
	}

	if entry, ok := r.menu.Button(id); ok {
		return r.canned(entry)
	}

	r.logger.Info().Str("button_id", id).Msg("Unknown bot button")
	return &models.BotReply{Messages: []string{msgUnknownCommand}}
}

// widen doubles the result budget for the more button
func widen(current int) int {
	if current <= 0 {
		return defaultMoreResults
	}
	return min(current*2, maxMoreResults)
}

func (r *Router) canned(entry MenuEntry) *models.BotReply {
	return &models.BotReply{
		Messages: SplitMessage(entry.Reply, r.config.MessageLimit),
		Buttons:  entry.Buttons,
	}
}

// ask answers a question and remembers it for the retry and more buttons
func (r *Router) ask(ctx context.Context, userID string, q lastQuery) *models.BotReply {
	if q.Query == "" {
		return &models.BotReply{Messages: []string{msgEmptyQuestion}}
	}
	r.sessions.remember(userID, q)

	opts := models.AnswerOptions{
		Mode:       q.Mode,
		MaxResults: q.MaxResults,
		UserImages: q.Images,
	}

	start := time.Now()
	answer, err := r.answers.Answer(ctx, q.Query, opts)
	if errors.Is(err, rag.ErrNotInitialized) && q.Mode != models.AnswerModeStrict {
		r.logger.Warn().Str("query", q.Query).Msg("Knowledge base not ready, answering without it")
		opts.DisableRAG = true
		answer, err = r.answers.Answer(ctx, q.Query, opts)
	}
	r.record(ctx, userID, q, answer, err, time.Since(start))

	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID).Str("query", q.Query).Msg("Failed to answer question")
		return &models.BotReply{
			Messages: []string{ApologyFor(err)},
			Buttons:  []models.Button{{ID: ButtonRetry, Label: labelRetry}},
		}
	}

	text := answer.Text
	if sources := uniqueSources(answer.Metadata.Sources); len(sources) > 0 {
		text += "\n\n" + msgSourcesHeader + "\n- " + strings.Join(sources, "\n- ")
	}

	buttons := []models.Button{{ID: ButtonRetry, Label: labelRetry}}
	if answer.Metadata.RAGUsed || answer.Metadata.Refused {
		buttons = append(buttons, models.Button{ID: ButtonMore, Label: labelMore})
	}

	return &models.BotReply{
		Messages: SplitMessage(text, r.config.MessageLimit),
		Buttons:  buttons,
	}
}

func (r *Router) record(ctx context.Context, userID string, q lastQuery, answer *models.Answer, err error, elapsed time.Duration) {
	if r.audit == nil {
		return
	}

	record := &models.AnswerRecord{
		ID:        common.NewAnswerID(),
		Query:     q.Query,
		Mode:      q.Mode,
		UserID:    userID,
		Duration:  elapsed,
		CreatedAt: time.Now(),
	}
	if answer != nil {
		record.Mode = answer.Metadata.Mode
		record.RAGUsed = answer.Metadata.RAGUsed
		record.Refused = answer.Metadata.Refused
		record.DocumentsUsed = answer.Metadata.DocumentsUsed
		record.MaxScore = answer.Metadata.MaxScore
	}
	if err != nil {
		record.Error = err.Error()
	}

	if saveErr := r.audit.SaveAnswer(ctx, record); saveErr != nil {
		r.logger.Warn().Err(saveErr).Str("record_id", record.ID).Msg("Failed to save answer record")
	}
}

func stripMentions(text string) string {
	return strings.TrimSpace(mentionPattern.ReplaceAllString(text, ""))
}

func userImages(attachments []models.Attachment) []models.ImageDescriptor {
	var images []models.ImageDescriptor
	for i, a := range attachments {
		if !a.IsImage() {
			continue
		}
		images = append(images, models.ImageDescriptor{
			Source:   "user",
			FileName: a.FileName,
			Position: fmt.Sprintf("attachment %d", i+1),
			Kind:     models.ImageKindUser,
			URL:      a.URL,
			MimeType: a.ContentType,
		})
	}
	return images
}

func uniqueSources(sources []string) []string {
	seen := make(map[string]bool, len(sources))
	var out []string
	for _, s := range sources {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
