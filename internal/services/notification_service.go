package services

import (
	"context"
	"fmt"
	"html/template"
	"strings"

	"repairlog/internal/config"
	"repairlog/internal/models"
	"repairlog/internal/observability"
	contextutils "repairlog/internal/utils"

	"go.opentelemetry.io/otel/attribute"
	"gopkg.in/mail.v2"
)

// NotificationService emails the configured recipients whenever a repair
// result is stored. Notification failures are logged, never propagated;
// the record is already safely persisted by the time this runs.
type NotificationService struct {
	cfg    *config.Config
	logger *observability.Logger
	dialer *mail.Dialer
}

// NewNotificationService creates a new NotificationService instance. The
// dialer is only built when email is enabled and configured.
func NewNotificationService(cfg *config.Config, logger *observability.Logger) *NotificationService {
	if cfg == nil {
		panic("NewNotificationService: cfg is nil")
	}
	if logger == nil {
		panic("NewNotificationService: logger is nil")
	}

	var dialer *mail.Dialer
	if cfg.Email.Enabled && cfg.Email.SMTP.Host != "" {
		dialer = mail.NewDialer(
			cfg.Email.SMTP.Host,
			cfg.Email.SMTP.Port,
			cfg.Email.SMTP.Username,
			cfg.Email.SMTP.Password,
		)
	}

	return &NotificationService{cfg: cfg, logger: logger, dialer: dialer}
}

// IsEnabled returns whether notifications can actually be sent.
func (n *NotificationService) IsEnabled() bool {
	return n.cfg.Email.Enabled && n.dialer != nil && len(n.recipients()) > 0
}

// recipients filters out misconfigured addresses so one bad entry does not
// fail the whole send.
func (n *NotificationService) recipients() []string {
	valid := make([]string, 0, len(n.cfg.Email.Recipients))
	for _, addr := range n.cfg.Email.Recipients {
		if contextutils.IsValidEmail(addr) {
			valid = append(valid, addr)
		}
	}
	return valid
}

// NotifyRepairResultStored sends the stored-record notification to every
// configured recipient.
func (n *NotificationService) NotifyRepairResultStored(ctx context.Context, record *models.RepairResult, product *models.Product) (err error) {
	ctx, span := observability.TraceCaptureFunction(ctx, "notify_repair_result_stored",
		observability.AttributeProductID(record.ProductID),
		observability.AttributeResultType(string(record.Type)),
	)
	defer observability.FinishSpan(span, &err)

	if !n.IsEnabled() {
		n.logger.Debug(ctx, "Notifications disabled, skipping", map[string]interface{}{
			"repair_result_id": record.ID,
		})
		return nil
	}

	productName := fmt.Sprintf("product %d", record.ProductID)
	if product != nil {
		productName = product.Name
	}

	body, err := n.renderBody(record, productName)
	if err != nil {
		return contextutils.WrapError(err, "failed to render notification body")
	}

	recipients := n.recipients()
	subject := fmt.Sprintf("Repair logged: %s (%s)", productName, record.Type.Label())
	m := mail.NewMessage()
	m.SetHeader("From", fmt.Sprintf("%s <%s>", n.cfg.Email.SMTP.FromName, n.cfg.Email.SMTP.FromAddress))
	m.SetHeader("To", recipients...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err = n.dialer.DialAndSend(m); err != nil {
		n.logger.Error(ctx, "Failed to send repair notification", err, map[string]interface{}{
			"repair_result_id": record.ID,
			"recipients":       strings.Join(recipients, ","),
		})
		return contextutils.WrapError(err, "failed to send notification")
	}

	span.SetAttributes(attribute.Int("notification.recipients", len(recipients)))
	n.logger.Info(ctx, "Repair notification sent", map[string]interface{}{
		"repair_result_id": record.ID,
		"recipients":       len(recipients),
	})
	return nil
}

var notificationTemplate = template.Must(template.New("repair_result").Parse(`
<h2>Repair result recorded</h2>
<p><strong>{{.ProductName}}</strong> on {{.Date}}: {{.OutcomeLabel}}</p>
{{if .Notes}}<p>Notes: {{.Notes}}</p>{{end}}
<ul>
  <li>Features observed: {{.FeatureCount}}</li>
  <li>Repair actions: {{.ActionCount}}</li>
  <li>Photos attached: {{.PhotoCount}}</li>
</ul>
`))

func (n *NotificationService) renderBody(record *models.RepairResult, productName string) (string, error) {
	data := map[string]interface{}{
		"ProductName":  productName,
		"Date":         record.Date.Format(models.DateLayout),
		"OutcomeLabel": record.Type.Label(),
		"Notes":        record.Notes.String,
		"FeatureCount": len(record.FaultFeatureIDs),
		"ActionCount":  len(record.RepairActionIDs),
		"PhotoCount":   len(record.PhotoIDs),
	}
	var sb strings.Builder
	if err := notificationTemplate.Execute(&sb, data); err != nil {
		return "", err
	}
	return sb.String(), nil
}
