package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"
	"go.uber.org/zap"

	"github.com/ytakahashi/todo-rpc/internal/services"
)

// Replier is the part of the LINE messaging API the webhook needs.
type Replier interface {
	ReplyMessage(replyMessageRequest *messaging_api.ReplyMessageRequest) (*messaging_api.ReplyMessageResponse, error)
}

var (
	addPattern  = regexp.MustCompile(`(?is)^(?:todo|add)[\s　]+(.+)$`)
	listPattern = regexp.MustCompile(`(?i)^(?:todo[\s　]*)?(?:list|ls)$`)
	helpPattern = regexp.MustCompile(`(?i)^(?:todo[\s　]*)?help$`)
)

const helpText = `📝 TODO Bot

🆕 Add a todo:
・todo <text>
・add <text>

📋 Show todos:
・list

❓ Help:
・help`

// WebhookHandler exposes the todo service to a LINE chat.
type WebhookHandler struct {
	bot    Replier
	secret string
	todos  *services.TodoService
	log    *zap.Logger
}

func NewWebhookHandler(bot Replier, channelSecret string, todos *services.TodoService, log *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		bot:    bot,
		secret: channelSecret,
		todos:  todos,
		log:    log,
	}
}

func (h *WebhookHandler) HandleWebhook(c echo.Context) error {
	cb, err := webhook.ParseRequest(h.secret, c.Request())
	if err != nil {
		if errors.Is(err, webhook.ErrInvalidSignature) {
			h.log.Warn("invalid signature")
			return c.NoContent(http.StatusBadRequest)
		}
		h.log.Error("parse request error", zap.Error(err))
		return c.NoContent(http.StatusInternalServerError)
	}

	ctx := c.Request().Context()
	for _, event := range cb.Events {
		e, ok := event.(webhook.MessageEvent)
		if !ok {
			continue
		}
		message, ok := e.Message.(webhook.TextMessageContent)
		if !ok {
			continue
		}
		if err := h.handleTextMessage(ctx, e.ReplyToken, message.Text); err != nil {
			h.log.Error("error handling text message", zap.Error(err))
		}
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *WebhookHandler) handleTextMessage(ctx context.Context, replyToken, text string) error {
	text = strings.TrimSpace(text)
	h.log.Debug("received text", zap.String("text", text))

	if listPattern.MatchString(text) {
		return h.showTodoList(ctx, replyToken)
	}
	if helpPattern.MatchString(text) {
		return h.replyMessage(replyToken, helpText)
	}
	if matches := addPattern.FindStringSubmatch(text); matches != nil {
		return h.createTodo(ctx, replyToken, strings.TrimSpace(matches[1]))
	}

	// unrecognised messages get no reply
	return nil
}

func (h *WebhookHandler) createTodo(ctx context.Context, replyToken, text string) error {
	todo, err := h.todos.CreateTodo(ctx, text)
	if errors.Is(err, services.ErrEmptyText) {
		return h.replyMessage(replyToken, "Please enter the todo text.\nExample: todo buy milk")
	}
	if err != nil {
		h.log.Error("failed to create todo", zap.Error(err))
		return h.replyMessage(replyToken, "Failed to create the todo.")
	}

	return h.replyMessage(replyToken, fmt.Sprintf("✅ Added todo #%d「%s」", todo.ID, todo.Text))
}

func (h *WebhookHandler) showTodoList(ctx context.Context, replyToken string) error {
	list, err := h.todos.ReadTodos(ctx)
	if err != nil {
		h.log.Error("failed to read todos", zap.Error(err))
		return h.replyMessage(replyToken, "Failed to read the todo list.")
	}

	if len(list.Items) == 0 {
		return h.replyMessage(replyToken, "There are no todos.")
	}

	lines := make([]string, 0, len(list.Items))
	for _, todo := range list.Items {
		lines = append(lines, fmt.Sprintf("%d. %s", todo.ID, todo.Text))
	}

	return h.replyMessage(replyToken, fmt.Sprintf("📝 Todos (%d)\n\n%s", len(list.Items), strings.Join(lines, "\n")))
}

func (h *WebhookHandler) replyMessage(replyToken, text string) error {
	_, err := h.bot.ReplyMessage(
		&messaging_api.ReplyMessageRequest{
			ReplyToken: replyToken,
			Messages: []messaging_api.MessageInterface{
				&messaging_api.TextMessage{
					Text: text,
				},
			},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to send reply message: %w", err)
	}

	return nil
}
