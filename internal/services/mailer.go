package services

import (
	"context"
	"fmt"
	"html"
	"log"
	"strings"

	"github.com/wneessen/go-mail"

	"storefront_back_end/internal/models"
)

// Mailer envoie les reçus de paiement par SMTP.
type Mailer struct {
	host     string
	port     int
	username string
	password string
	from     string
}

func NewMailer(host string, port int, username, password, from string) *Mailer {
	return &Mailer{host: host, port: port, username: username, password: password, from: from}
}

func (m *Mailer) SendReceipt(ctx context.Context, to string, p models.Payment) error {
	msg, err := m.receiptMessage(to, p)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(m.host,
		mail.WithPort(m.port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.username),
		mail.WithPassword(m.password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return err
	}

	log.Println("📤 Envoi du reçu à", to)
	return client.DialAndSendWithContext(ctx, msg)
}

func (m *Mailer) receiptMessage(to string, p models.Payment) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return nil, fmt.Errorf("expéditeur invalide: %w", err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("destinataire invalide: %w", err)
	}
	msg.Subject("Confirmation de votre paiement")
	msg.SetBodyString(mail.TypeTextHTML, ReceiptHTML(p))
	return msg, nil
}

// ReceiptHTML génère le corps HTML du reçu.
func ReceiptHTML(p models.Payment) string {
	currency := strings.ToUpper(p.Currency)
	if currency == "" {
		currency = "USD"
	}

	var items strings.Builder
	for _, id := range p.CartIDs {
		fmt.Fprintf(&items, "\n\t\t\t<li>%s</li>", html.EscapeString(id))
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>Confirmation de paiement</title></head>
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2>Merci pour votre achat</h2>
		<p>Transaction : <strong>%s</strong></p>
		<p>Montant : <strong>%.2f %s</strong></p>
		<h3>Articles réglés</h3>
		<ul>%s
		</ul>
	</div>
</body>
</html>`, html.EscapeString(p.TransactionID), p.Amount, html.EscapeString(currency), items.String())
}
