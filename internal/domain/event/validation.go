package event

import (
	"strings"
	"time"
)

// Validation messages shown beneath each field.
const (
	MsgTitleRequired       = "O título é obrigatório"
	MsgDescriptionRequired = "A descrição é obrigatória"
	MsgDescriptionTooLong  = "A descrição deve ter no máximo 500 caracteres"
	MsgLocationRequired    = "O local é obrigatório"
	MsgDateRequired        = "A data é obrigatória"
	MsgDateInvalid         = "Data inválida"
	MsgDateInPast          = "A data não pode estar no passado"
	MsgCategoryInvalid     = "Categoria inválida"
)

// ValidationErrors maps a field to its single error message. It is replaced
// wholesale on every validation pass and is empty after a successful one.
type ValidationErrors map[Field]string

// OK reports whether no field failed.
func (v ValidationErrors) OK() bool {
	return len(v) == 0
}

// Has reports whether field has an error.
func (v ValidationErrors) Has(field Field) bool {
	_, ok := v[field]
	return ok
}

// Clone returns an independent copy.
func (v ValidationErrors) Clone() ValidationErrors {
	out := make(ValidationErrors, len(v))
	for k, msg := range v {
		out[k] = msg
	}
	return out
}

// RuleContext carries the environment a rule may consult.
type RuleContext struct {
	Now        time.Time
	Location   *time.Location
	Categories Categories
}

// Rule is a single predicate with the message reported when it fails.
type Rule struct {
	Pass    func(d Draft, rc RuleContext) bool
	Message string
}

// FieldRules is the ordered rule list for one field. The first failing rule wins.
type FieldRules struct {
	Field Field
	Rules []Rule
}

func nonBlank(get func(Draft) string) func(Draft, RuleContext) bool {
	return func(d Draft, _ RuleContext) bool {
		return strings.TrimSpace(get(d)) != ""
	}
}

// DraftRules is the authoritative schema for a new event, evaluated top to bottom.
var DraftRules = []FieldRules{
	{Field: FieldTitle, Rules: []Rule{
		{Pass: nonBlank(func(d Draft) string { return d.Title }), Message: MsgTitleRequired},
	}},
	{Field: FieldDescription, Rules: []Rule{
		{Pass: nonBlank(func(d Draft) string { return d.Description }), Message: MsgDescriptionRequired},
		{Pass: func(d Draft, _ RuleContext) bool { return d.DescriptionLength() <= MaxDescriptionLength }, Message: MsgDescriptionTooLong},
	}},
	{Field: FieldLocation, Rules: []Rule{
		{Pass: nonBlank(func(d Draft) string { return d.Location }), Message: MsgLocationRequired},
	}},
	{Field: FieldDate, Rules: []Rule{
		{Pass: nonBlank(func(d Draft) string { return d.Date }), Message: MsgDateRequired},
		{Pass: func(d Draft, rc RuleContext) bool {
			_, err := ParseDate(d.Date, rc.Location)
			return err == nil
		}, Message: MsgDateInvalid},
		{Pass: func(d Draft, rc RuleContext) bool {
			t, err := ParseDate(d.Date, rc.Location)
			if err != nil {
				return false
			}
			// Minute-resolution input keeps the current minute valid; input
			// carrying seconds is compared to the exact moment.
			cutoff := rc.Now
			if MinutePrecision(d.Date) {
				cutoff = rc.Now.Truncate(time.Minute)
			}
			return !t.Before(cutoff)
		}, Message: MsgDateInPast},
	}},
	{Field: FieldCategory, Rules: []Rule{
		{Pass: func(d Draft, rc RuleContext) bool {
			return d.Category == "" || rc.Categories.Contains(d.Category)
		}, Message: MsgCategoryInvalid},
	}},
}

// ValidateDraft runs d through DraftRules.
// PRE: rc.Now is the validation moment
// POST: returns a fresh error set with at most one message per field; empty when d is valid
// INVARIANT: d is not mutated
func ValidateDraft(d Draft, rc RuleContext) ValidationErrors {
	errs := ValidationErrors{}
	for _, fr := range DraftRules {
		for _, rule := range fr.Rules {
			if !rule.Pass(d, rc) {
				errs[fr.Field] = rule.Message
				break
			}
		}
	}
	return errs
}

// QuickCheck is the cheap, non-authoritative predicate that enables the
// submit affordance. It never replaces ValidateDraft.
func QuickCheck(d Draft) bool {
	return strings.TrimSpace(d.Title) != "" &&
		strings.TrimSpace(d.Description) != "" &&
		d.DescriptionLength() <= MaxDescriptionLength &&
		strings.TrimSpace(d.Location) != "" &&
		strings.TrimSpace(d.Date) != ""
}
