package service

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

const assignedKey = "ticket.assigned"

func statusKey(status domain.TicketStatus) string {
	return "ticket.status." + string(status)
}

var supportedLocales = []language.Tag{language.BrazilianPortuguese, language.English}

var labelTranslations = map[language.Tag]map[string]string{
	language.BrazilianPortuguese: {
		assignedKey: "Ticket assumido por %s",
		statusKey(domain.TicketStatusOpen):       "Ticket reaberto por %s",
		statusKey(domain.TicketStatusInProgress): "Ticket colocado em andamento por %s",
		statusKey(domain.TicketStatusPending):    "Ticket colocado como pendente por %s",
		statusKey(domain.TicketStatusResolved):   "Ticket resolvido por %s",
		statusKey(domain.TicketStatusClosed):     "Ticket fechado por %s",
	},
	language.English: {
		assignedKey: "Ticket taken by %s",
		statusKey(domain.TicketStatusOpen):       "Ticket reopened by %s",
		statusKey(domain.TicketStatusInProgress): "Ticket moved to in progress by %s",
		statusKey(domain.TicketStatusPending):    "Ticket set to pending by %s",
		statusKey(domain.TicketStatusResolved):   "Ticket resolved by %s",
		statusKey(domain.TicketStatusClosed):     "Ticket closed by %s",
	},
}

// TransitionLabels renders the system comments written on assignment and status changes.
type TransitionLabels struct {
	printer *message.Printer
}

// NewTransitionLabels picks the closest supported locale; unknown locales get pt-BR.
func NewTransitionLabels(locale string) *TransitionLabels {
	builder := catalog.NewBuilder(catalog.Fallback(language.English))
	for tag, messages := range labelTranslations {
		for key, msg := range messages {
			// Keys and messages are static; SetString only fails on malformed input.
			_ = builder.SetString(tag, key, msg)
		}
	}

	tag := supportedLocales[0]
	if requested, err := language.Parse(locale); err == nil {
		_, idx, confidence := language.NewMatcher(supportedLocales).Match(requested)
		if confidence != language.No {
			tag = supportedLocales[idx]
		}
	}
	return &TransitionLabels{printer: message.NewPrinter(tag, message.Catalog(builder))}
}

// Assigned renders the comment for a successful take.
func (l *TransitionLabels) Assigned(username string) string {
	return l.printer.Sprintf(assignedKey, username)
}

// StatusChanged renders the comment for a move into status.
func (l *TransitionLabels) StatusChanged(status domain.TicketStatus, username string) string {
	return l.printer.Sprintf(statusKey(status), username)
}
