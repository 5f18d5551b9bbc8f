package transcript

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/collectwise/debtchat/config"
)

// Negotiation holds the business parameters of the debt-negotiation
// assistant. The system instruction and the widget greeting are both
// rendered from it, so the debt amount is stated in one place only.
type Negotiation struct {
	Company    string
	AgentName  string
	Creditor   string
	DebtAmount int
	PaymentURL string
	Plans      []string
}

// DefaultNegotiation returns the parameters of the default configuration.
func DefaultNegotiation() Negotiation {
	return FromConfig(config.DefaultConfig().Negotiation)
}

// FromConfig builds a Negotiation from its configuration section.
func FromConfig(cfg config.NegotiationConfig) Negotiation {
	return Negotiation{
		Company:    cfg.Company,
		AgentName:  cfg.AgentName,
		Creditor:   cfg.Creditor,
		DebtAmount: cfg.DebtAmount,
		PaymentURL: cfg.PaymentURL,
		Plans:      append([]string(nil), cfg.Plans...),
	}
}

var instructionTmpl = template.Must(template.New("instruction").Parse(
	`You are {{.Company}}, a friendly debt-negotiation assistant. Our records show the user owes ${{.DebtAmount}}.
Your role is to:
1. Always start by telling them the amount owed
2. Negotiate a realistic payment plan based on their financial constraints
3. Follow these payment plan guidelines:
   - Offer {{.PlanList}} installments
   - Suggest realistic options (e.g., ${{.ExampleInstallment}}/month for 3 months)
   - If user proposes unrealistic plans, negotiate toward something reasonable
4. Once an agreement is reached, provide a payment URL in this format:
   {{.PaymentURL}}?termLength={termLength}&totalDebtAmount={totalDebtAmount}&termPaymentAmount={termPaymentAmount}

Be professional but empathetic. Focus on finding a mutually beneficial solution.`))

// Instruction renders the system instruction prepended to every transcript.
func (n Negotiation) Instruction() string {
	var buf bytes.Buffer
	data := struct {
		Negotiation
		PlanList           string
		ExampleInstallment int
	}{
		Negotiation:        n,
		PlanList:           joinPlans(n.Plans),
		ExampleInstallment: exampleInstallment(n.DebtAmount),
	}
	// The template is fixed and its fields are plain values; Execute cannot fail.
	_ = instructionTmpl.Execute(&buf, data)
	return buf.String()
}

// Greeting is the opening bot turn shown by the widget.
func (n Negotiation) Greeting() string {
	return fmt.Sprintf("Hello! My name is %s, the %s Chatbot on behalf of %s. According to our records, you owe $%d.",
		n.AgentName, n.Company, n.Creditor, n.DebtAmount)
}

// joinPlans renders ["monthly","biweekly","weekly"] as "monthly, biweekly, or weekly".
func joinPlans(plans []string) string {
	switch len(plans) {
	case 0:
		return "monthly"
	case 1:
		return plans[0]
	case 2:
		return plans[0] + " or " + plans[1]
	}
	return strings.Join(plans[:len(plans)-1], ", ") + ", or " + plans[len(plans)-1]
}

// exampleInstallment rounds a three-month split of amount up to the nearest hundred.
func exampleInstallment(amount int) int {
	third := (amount + 2) / 3
	return ((third + 99) / 100) * 100
}
