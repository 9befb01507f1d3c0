package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ordersight/matchday/internal/config"
	"github.com/ordersight/matchday/internal/models"
)

// messageSender is the slice of the Telegram bot API the service needs,
// extracted so tests can capture outgoing messages.
type messageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*tgmodels.Message, error)
}

// NotificationService delivers a digest of each analysis run to a Telegram
// chat. Without a configured bot token the service degrades to a no-op.
type NotificationService struct {
	cfg     config.TelegramConfig
	logger  *logrus.Logger
	sender  messageSender
	printer *message.Printer
}

// NewNotificationService creates a notification service. An empty bot token
// disables delivery without failing construction.
func NewNotificationService(cfg config.TelegramConfig, logger *logrus.Logger) *NotificationService {
	var sender messageSender
	if cfg.BotToken != "" {
		b, err := bot.New(cfg.BotToken)
		if err != nil {
			logger.WithError(err).Warn("Failed to initialize Telegram bot, notifications disabled")
		} else {
			sender = b
		}
	}

	return &NotificationService{
		cfg:     cfg,
		logger:  logger,
		sender:  sender,
		printer: message.NewPrinter(language.English),
	}
}

// Enabled reports whether the service can actually deliver messages.
func (ns *NotificationService) Enabled() bool {
	return ns.sender != nil && ns.cfg.ChatID != ""
}

// SendReportDigest delivers a digest of the report and its significant
// findings. Disabled delivery is not an error.
func (ns *NotificationService) SendReportDigest(ctx context.Context, report *models.InsightReport, significant []models.CorrelationFinding) error {
	if !ns.Enabled() {
		ns.logger.Debug("Telegram notifications disabled, skipping report digest")
		return nil
	}

	text := ns.FormatReportDigest(report, significant)
	_, err := ns.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    ns.cfg.ChatID,
		Text:      text,
		ParseMode: tgmodels.ParseModeMarkdown,
	})
	if err != nil {
		return fmt.Errorf("failed to send report digest: %w", err)
	}

	ns.logger.WithField("report_id", report.ID).Info("Sent report digest to Telegram")
	return nil
}

// FormatReportDigest renders the Markdown digest for one report.
func (ns *NotificationService) FormatReportDigest(report *models.InsightReport, significant []models.CorrelationFinding) string {
	var b strings.Builder

	b.WriteString("📊 *Match-Day Order Analysis*\n\n")
	b.WriteString(ns.printer.Sprintf("🍕 *Orders:* %d\n", report.TotalOrders))
	b.WriteString(ns.printer.Sprintf("⚽ *Matches:* %d\n", report.TotalMatches))
	b.WriteString(fmt.Sprintf("✅ *Data quality:* %.1f/100 (%.1f%% real data)\n\n", report.DataQualityScore, report.RealDataPercentage))

	if len(significant) > 0 {
		b.WriteString(ns.printer.Sprintf("🔍 *Significant correlations:* %d\n", len(significant)))
		top := significant
		if len(top) > 3 {
			top = top[:3]
		}
		for _, f := range top {
			b.WriteString(fmt.Sprintf("  • %s\n", strings.TrimPrefix(f.Description, "SIGNIFICANT: ")))
		}
		b.WriteString("\n")
	} else {
		b.WriteString("🔍 No statistically significant correlations this run\n\n")
	}

	if len(report.KeyInsights) > 0 {
		b.WriteString("💡 *Key insights:*\n")
		for _, insight := range report.KeyInsights {
			b.WriteString(fmt.Sprintf("  • %s\n", insight))
		}
		b.WriteString("\n")
	}

	if len(report.Anomalies) > 0 {
		b.WriteString(ns.printer.Sprintf("⚠️ *Anomalies detected:* %d\n\n", len(report.Anomalies)))
	}

	if len(report.Recommendations) > 0 {
		b.WriteString("📌 *Top recommendation:* ")
		b.WriteString(report.Recommendations[0])
		b.WriteString("\n")
	}

	return b.String()
}
