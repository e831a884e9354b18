package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/zombor/invoice-ledger/internal/ledger"
)

// maxDownloadSize is the largest file the Bot API lets bots download
const maxDownloadSize = 20 << 20

const usageHint = "Send me a photo of an invoice and I will add it to the ledger."

// ErrUpdatesClosed is returned by Run when the Bot API stops delivering updates
var ErrUpdatesClosed = errors.New("telegram update channel closed")

// Processor turns an uploaded photo into ledger rows
type Processor interface {
	ProcessInvoice(ctx context.Context, up ledger.Upload) (*ledger.Result, error)
}

// botAPI is the subset of *tgbotapi.BotAPI the bot uses
type botAPI interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	GetFileDirectURL(fileID string) (string, error)
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Bot receives invoice photos over Telegram
type Bot struct {
	api        botAPI
	processor  Processor
	httpClient *http.Client
	allowed    map[int64]bool
}

// NewBot connects to the Bot API with token. When allowedChats is not empty,
// messages from other chats are refused.
func NewBot(token string, processor Processor, allowedChats []int64) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connecting to telegram: %w", withoutURL(err))
	}
	slog.Info("Telegram bot authorized", "username", api.Self.UserName)
	return newBot(api, processor, allowedChats), nil
}

func newBot(api botAPI, processor Processor, allowedChats []int64) *Bot {
	allowed := make(map[int64]bool, len(allowedChats))
	for _, id := range allowedChats {
		allowed[id] = true
	}
	return &Bot{
		api:        api,
		processor:  processor,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		allowed:    allowed,
	}
}

// Run long-polls for updates until ctx is cancelled. It returns nil on
// cancellation and ErrUpdatesClosed if the update channel closes first.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	slog.Info("Telegram bot polling for updates")
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return ErrUpdatesClosed
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return
	}

	if len(b.allowed) > 0 && !b.allowed[msg.Chat.ID] {
		slog.Warn("Message from chat not on the allow-list", "chat_id", msg.Chat.ID)
		b.reply(msg, "⛔ This chat is not allowed to submit invoices.")
		return
	}

	fileID, filename, contentType, ok := attachment(msg)
	if !ok {
		b.reply(msg, usageHint)
		return
	}

	data, err := b.download(ctx, fileID)
	if err != nil {
		slog.Error("Failed to download photo", "chat_id", msg.Chat.ID, "file_id", fileID, "error", err)
		b.reply(msg, "❌ Error: "+err.Error())
		return
	}

	result, err := b.processor.ProcessInvoice(ctx, ledger.Upload{
		Filename:     filename,
		Data:         data,
		ContentType:  contentType,
		AttributedTo: sender(msg.From),
	})
	if err != nil {
		slog.Error("Failed to process invoice", "chat_id", msg.Chat.ID, "error", err)
		b.reply(msg, "❌ Error: "+err.Error())
		return
	}

	b.reply(msg, summary(result))
}

// attachment picks the file to scan: the largest photo size, or a document
// that is an image or a PDF
func attachment(msg *tgbotapi.Message) (fileID, filename, contentType string, ok bool) {
	if len(msg.Photo) > 0 {
		largest := msg.Photo[0]
		for _, p := range msg.Photo[1:] {
			if p.Width*p.Height > largest.Width*largest.Height {
				largest = p
			}
		}
		return largest.FileID, largest.FileID + ".jpg", "image/jpeg", true
	}

	if doc := msg.Document; doc != nil {
		mime := strings.ToLower(doc.MimeType)
		if strings.HasPrefix(mime, "image/") || mime == "application/pdf" {
			name := doc.FileName
			if name == "" {
				name = doc.FileID
			}
			return doc.FileID, name, mime, true
		}
	}
	return "", "", "", false
}

// sender names who submitted the invoice: the username, else the full name
func sender(u *tgbotapi.User) string {
	if u == nil {
		return ""
	}
	if u.UserName != "" {
		return u.UserName
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (b *Bot) download(ctx context.Context, fileID string) ([]byte, error) {
	fileURL, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("getting file url: %w", withoutURL(err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, errors.New("creating download request")
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading file: %w", withoutURL(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("downloading file: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	if len(data) > maxDownloadSize {
		return nil, fmt.Errorf("file is larger than %d bytes", maxDownloadSize)
	}
	return data, nil
}

// withoutURL drops the request URL from transport errors. Bot API and file
// URLs both carry the bot token.
func withoutURL(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}

func summary(result *ledger.Result) string {
	rec := result.Invoice

	total := "unknown"
	switch {
	case rec.NetTotal.Valid:
		total = fmt.Sprint(rec.NetTotal.Value)
	case rec.NetTotal.Raw != "":
		total = rec.NetTotal.Raw
	}

	vat := "No"
	if rec.VATPresent {
		vat = "Yes"
	}

	supplier := rec.Supplier
	if supplier == "" {
		supplier = "unknown"
	}

	return fmt.Sprintf("✅ Saved to ledger\n\nSupplier: %s\nDate: %s\nTotal: %s\nVAT: %s\nCategory: %s\nItems: %d",
		supplier, rec.Date, total, vat, rec.SubCategory, len(rec.Items))
}

func (b *Bot) reply(msg *tgbotapi.Message, text string) {
	out := tgbotapi.NewMessage(msg.Chat.ID, text)
	out.ReplyToMessageID = msg.MessageID
	if _, err := b.api.Send(out); err != nil {
		slog.Error("Failed to send reply", "chat_id", msg.Chat.ID, "error", withoutURL(err))
	}
}
