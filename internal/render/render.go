package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"rx-logistics/internal/domain/feedback"
	"rx-logistics/internal/domain/triplog"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Email is a rendered message ready for the mailer.
type Email struct {
	Subject string
	HTML    string
}

// Renderer turns trip logs and feedback into the documents users download,
// open or receive by email.
type Renderer struct {
	appName string
	loc     *time.Location
}

func New(appName string, loc *time.Location) *Renderer {
	if loc == nil {
		loc = time.UTC
	}
	return &Renderer{appName: appName, loc: loc}
}

func TireLabel(p triplog.TirePosition) string {
	return "Tire Pressure (" + p.Label() + ")"
}

// DocumentTitle names the print document Last-First-MM-DD-Trip-Type.
func (r *Renderer) DocumentTitle(l *triplog.TripLog) string {
	first, last := "Unknown", "Driver"
	if parts := strings.Fields(l.DriverName); len(parts) > 0 {
		first = parts[0]
		if len(parts) > 1 {
			last = strings.Join(parts[1:], " ")
		}
	}

	created := l.CreatedAt.In(r.loc)
	tripType := strings.Join(strings.Fields(string(l.TripType)), "-")
	return fmt.Sprintf("%s-%s-%s-%s", last, first, created.Format("01-02"), tripType)
}

type tireView struct {
	Label  string
	Abbrev string
	Value  string
}

type rowView struct {
	Label   string
	Answer  string
	Status  string
	Issue   bool
	Comment string
}

type photoView struct {
	Label string
	URL   string
}

type documentView struct {
	AppName    string
	Title      string
	ID         int64
	DriverName string
	TripType   string
	IsPreTrip  bool
	DateTime   string
	Date       string
	Route      string
	Odometer   string
	Tires      []tireView
	Rows       []rowView
	IssueCount int
	Notes      string
	Photos     []photoView
	EditCount  int

	AutoPrint bool
	Shared    bool
	PrintURL  string
	ShareURL  string
}

func (r *Renderer) document(l *triplog.TripLog) documentView {
	created := l.CreatedAt.In(r.loc)

	v := documentView{
		AppName:    r.appName,
		Title:      r.DocumentTitle(l),
		ID:         l.ID,
		DriverName: orDefault(l.DriverName, "Unknown"),
		TripType:   string(l.TripType),
		IsPreTrip:  l.TripType == triplog.PreTrip,
		DateTime:   created.Format("Jan 2, 2006 3:04 PM"),
		Date:       created.Format("1/2/2006"),
		Route:      orDefault(l.RouteID, notApplicable),
		Odometer:   l.Odometer.String(),
		IssueCount: l.IssueCount(),
		Notes:      l.Notes,
		EditCount:  l.EditCount,
	}

	if v.IsPreTrip {
		for _, p := range triplog.TirePositions() {
			value := l.Checklist.TirePressures.Reading(p, "-")
			v.Tires = append(v.Tires, tireView{Label: p.Label(), Abbrev: p.Abbrev(), Value: value})
		}
	}

	for _, q := range triplog.QuestionsFor(l.TripType) {
		status := l.AnswerStatus(q.ID)
		v.Rows = append(v.Rows, rowView{
			Label:   q.Label,
			Answer:  orDefault(string(l.Checklist.Answer(q.ID)), "-"),
			Status:  string(status),
			Issue:   status == triplog.StatusIssue,
			Comment: l.Checklist.Comment(q.ID),
		})
	}

	for _, slot := range triplog.PhotoSlots() {
		if url := l.Images.Get(slot); url != "" {
			v.Photos = append(v.Photos, photoView{Label: slot.Label(), URL: url})
		}
	}

	return v
}

// PrintHTML renders the print document, which opens the print dialog as soon
// as it loads.
func (r *Renderer) PrintHTML(l *triplog.TripLog) ([]byte, error) {
	v := r.document(l)
	v.AutoPrint = true
	return execute("document.html", v)
}

// ShareHTML renders the read-only public view. printURL links to the print
// document for the same token.
func (r *Renderer) ShareHTML(l *triplog.TripLog, printURL string) ([]byte, error) {
	v := r.document(l)
	v.Shared = true
	v.PrintURL = printURL
	return execute("document.html", v)
}

func (r *Renderer) TripLogEmail(l *triplog.TripLog, shareURL string) (*Email, error) {
	v := r.document(l)
	v.ShareURL = shareURL

	body, err := execute("triplog_email.html", v)
	if err != nil {
		return nil, err
	}

	return &Email{
		Subject: fmt.Sprintf("Trip Log: %s - %s - %s", v.DriverName, v.TripType, v.Date),
		HTML:    string(body),
	}, nil
}

type feedbackView struct {
	AppName  string
	Name     string
	Email    string
	Subject  string
	Message  string
	Received string
	InboxURL string
}

func (r *Renderer) FeedbackEmail(fb *feedback.Feedback, inboxURL string) (*Email, error) {
	body, err := execute("feedback_email.html", feedbackView{
		AppName:  r.appName,
		Name:     fb.Name,
		Email:    fb.Email,
		Subject:  string(fb.Subject),
		Message:  fb.Message,
		Received: fb.CreatedAt.In(r.loc).Format("Jan 2, 2006 3:04 PM"),
		InboxURL: inboxURL,
	})
	if err != nil {
		return nil, err
	}

	return &Email{
		Subject: fmt.Sprintf("New Feedback from %s", fb.Name),
		HTML:    string(body),
	}, nil
}

func execute(name string, data interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

// Location is the timezone dates are rendered and parsed in.
func (r *Renderer) Location() *time.Location {
	return r.loc
}
