package eventform

import (
	"net/mail"
	"net/url"
	"regexp"
	"sort"
	"strings"
)

// FieldErrors maps a dotted field path to a message
type FieldErrors map[string]string

func (fe FieldErrors) add(path, msg string) {
	if _, ok := fe[path]; !ok {
		fe[path] = msg
	}
}

// ValidationError aborts a submission. Summary lists the failing fields
// by their labels.
type ValidationError struct {
	Fields  FieldErrors
	Steps   []string
	Summary string
}

func (e *ValidationError) Error() string {
	return e.Summary
}

// Messages
const (
	msgRequired    = "Toto pole je povinné."
	msgInvalidURL  = "Zadejte platný odkaz začínající http:// nebo https://."
	msgInvalidMail = "Zadejte platný e-mail."
	msgInvalid     = "Neplatná hodnota."
)

var timePattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func validURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(strings.TrimSpace(s))
	return err == nil && addr.Name == "" && strings.Contains(addr.Address, ".")
}

// fieldLabels are the Czech field names shown in summaries
var fieldLabels = [][2]string{
	{"group", "Typ akce"},
	{"name", "Název"},
	{"start", "Začátek akce"},
	{"start_time", "Čas začátku"},
	{"end", "Konec akce"},
	{"number_of_sub_events", "Počet akcí v uvedeném období"},
	{"category", "Druh akce"},
	{"program", "Program"},
	{"administration_units", "Pořádající organizační jednotky"},
	{"intended_for", "Pro koho"},
	{"location", "Lokalita"},
	{"location.name", "Název lokality"},
	{"location.address", "Adresa lokality"},
	{"online_link", "Odkaz na online akci"},
	{"registrationMethod", "Způsob přihlášení"},
	{"registration.alternative_registration_link", "Odkaz na přihlášku"},
	{"registration.questionnaire", "Dotazník"},
	{"propagation.cost", "Cena"},
	{"propagation.minimum_age", "Minimální věk"},
	{"propagation.maximum_age", "Maximální věk"},
	{"propagation.accommodation", "Ubytování"},
	{"propagation.diets", "Strava"},
	{"propagation.web_url", "Web akce"},
	{"propagation.working_days", "Pracovních dní na akci"},
	{"propagation.working_hours", "Pracovních hodin denně"},
	{"propagation.invitation_text_introductory", "Zvací text: Co nás čeká"},
	{"propagation.invitation_text_practical_information", "Zvací text: Co, kde a jak"},
	{"propagation.invitation_text_work_description", "Zvací text: Dobrovolnická pomoc"},
	{"propagation.invitation_text_about_us", "Zvací text: Malá ochutnávka"},
	{"main_organizer", "Hlavní organizátor"},
	{"other_organizers", "Další organizátoři"},
	{"propagation.contact_name", "Jméno kontaktní osoby"},
	{"propagation.contact_email", "Kontaktní e-mail"},
	{"propagation.contact_phone", "Kontaktní telefon"},
}

var labels = func() map[string]string {
	m := make(map[string]string, len(fieldLabels))
	for _, l := range fieldLabels {
		m[l[0]] = l[1]
	}
	return m
}()

// Label returns the Czech label of a field path
func Label(path string) string {
	if l, ok := labels[path]; ok {
		return l
	}
	// questionnaire questions and other indexed paths
	if i := strings.Index(path, "["); i > 0 {
		if l, ok := labels[path[:i]]; ok {
			return l
		}
	}
	return path
}

// newValidationError aggregates per-step errors in step order
func newValidationError(steps []Step, results []FieldErrors) *ValidationError {
	ve := &ValidationError{Fields: FieldErrors{}}
	var names []string
	seen := map[string]bool{}

	for i, step := range steps {
		fe := results[i]
		if len(fe) == 0 {
			continue
		}
		ve.Steps = append(ve.Steps, step.Name)

		paths := make([]string, 0, len(fe))
		for p := range fe {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		for _, p := range paths {
			ve.Fields.add(p, fe[p])
			if l := Label(p); !seen[l] {
				seen[l] = true
				names = append(names, l)
			}
		}
	}
	if len(names) == 0 {
		return nil
	}
	ve.Summary = "Formulář obsahuje chyby: " + strings.Join(names, ", ")
	return ve
}
