package triplog

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// QuestionID is the stable key a checklist answer is stored under.
type QuestionID string

const (
	QInteriorClean       QuestionID = "interior_clean"
	QFuelTankFull        QuestionID = "fuel_tank_full"
	QGasCard             QuestionID = "gas_card"
	QDashboardWarnings   QuestionID = "dashboard_warning_lights"
	QHorn                QuestionID = "horn"
	QHVAC                QuestionID = "hvac"
	QInfotainment        QuestionID = "infotainment"
	QDoors               QuestionID = "doors"
	QInteriorLights      QuestionID = "interior_lights"
	QSeatsBelts          QuestionID = "seats_belts"
	QWipers              QuestionID = "wipers"
	QWindowCracks        QuestionID = "window_cracks"
	QVisibleDamage       QuestionID = "visible_damage"
	QHeadlights          QuestionID = "headlights"
	QBrakeLights         QuestionID = "brake_lights"
	QTurnSignals         QuestionID = "turn_signals"
	QHazardLights        QuestionID = "hazard_lights"
	QFogLights           QuestionID = "fog_lights"
	QScannerSynced       QuestionID = "scanner_synced"
	QScannerReturned     QuestionID = "scanner_returned"
	QTackleBoxesReturned QuestionID = "tackle_boxes_returned"
)

// Question is one yes/no checklist item.
type Question struct {
	ID    QuestionID
	Label string
	// Damage questions describe a fault, so a "Yes" is the bad answer.
	Damage bool
}

var questions = map[QuestionID]Question{
	QInteriorClean:       {QInteriorClean, "Interior clean of debris, bins organised in trunk, up to 3 yellow bags on passenger seat", false},
	QFuelTankFull:        {QFuelTankFull, "Fuel Tank Full", false},
	QGasCard:             {QGasCard, "Gas card in binder", false},
	QDashboardWarnings:   {QDashboardWarnings, "Dashboard warning lights on", true},
	QHorn:                {QHorn, "Horn works", false},
	QHVAC:                {QHVAC, "HVAC systems working", false},
	QInfotainment:        {QInfotainment, "Info/Entertainment systems working", false},
	QDoors:               {QDoors, "All doors working", false},
	QInteriorLights:      {QInteriorLights, "Interior lights working", false},
	QSeatsBelts:          {QSeatsBelts, "Driver/Passenger seat and belts working", false},
	QWipers:              {QWipers, "Windshield wipers working", false},
	QWindowCracks:        {QWindowCracks, "Cracks/chips on any windows", true},
	QVisibleDamage:       {QVisibleDamage, "Dings, dents, or other visible damage on interior/exterior", true},
	QHeadlights:          {QHeadlights, "Headlights working", false},
	QBrakeLights:         {QBrakeLights, "Brake lights working", false},
	QTurnSignals:         {QTurnSignals, "Turn signals working", false},
	QHazardLights:        {QHazardLights, "Hazard lights working", false},
	QFogLights:           {QFogLights, "Fog lights working", false},
	QScannerSynced:       {QScannerSynced, "Synchronize Scanner, End Route, Log Off", false},
	QScannerReturned:     {QScannerReturned, "Scanner returned", false},
	QTackleBoxesReturned: {QTackleBoxesReturned, "Tackle boxes returned", false},
}

var preTripOrder = []QuestionID{
	QInteriorClean, QFuelTankFull, QGasCard, QDashboardWarnings, QHorn, QHVAC,
	QInfotainment, QDoors, QInteriorLights, QSeatsBelts, QWipers, QWindowCracks,
	QVisibleDamage, QHeadlights, QBrakeLights, QTurnSignals, QHazardLights, QFogLights,
}

var postTripOrder = []QuestionID{
	QFuelTankFull, QInteriorClean, QScannerSynced, QScannerReturned, QTackleBoxesReturned,
}

// masterOrder is pre-trip order followed by post-trip items not already listed.
var masterOrder = func() []QuestionID {
	seen := make(map[QuestionID]bool, len(questions))
	out := make([]QuestionID, 0, len(questions))
	for _, ids := range [][]QuestionID{preTripOrder, postTripOrder} {
		for _, id := range ids {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}()

func lookup(ids []QuestionID) []Question {
	out := make([]Question, len(ids))
	for i, id := range ids {
		out[i] = questions[id]
	}
	return out
}

// QuestionsFor returns the ordered checklist for a trip type.
func QuestionsFor(t TripType) []Question {
	switch t {
	case PreTrip:
		return lookup(preTripOrder)
	case PostTrip:
		return lookup(postTripOrder)
	}
	return nil
}

// MasterQuestions is the union of every trip type's checklist, duplicates
// removed, in a fixed order. CSV columns follow it.
func MasterQuestions() []Question {
	return lookup(masterOrder)
}

func LookupQuestion(id QuestionID) (Question, bool) {
	q, ok := questions[id]
	return q, ok
}

// Answer is a checklist response. The empty Answer means unanswered.
type Answer string

const (
	AnswerYes Answer = "Yes"
	AnswerNo  Answer = "No"
)

func (a Answer) IsValid() bool {
	return a == AnswerYes || a == AnswerNo
}

// RequiresExplanation reports whether an answer is flagged: "Yes" to a damage
// question or "No" to anything else. Unanswered is never flagged.
func RequiresExplanation(id QuestionID, a Answer) bool {
	q, ok := questions[id]
	if !ok {
		return false
	}
	if q.Damage {
		return a == AnswerYes
	}
	return a == AnswerNo
}

// TirePosition names one wheel.
type TirePosition string

const (
	TireDriverFront    TirePosition = "driver_front"
	TirePassengerFront TirePosition = "passenger_front"
	TireDriverRear     TirePosition = "driver_rear"
	TirePassengerRear  TirePosition = "passenger_rear"
)

var tireLabels = map[TirePosition]string{
	TireDriverFront:    "Driver Front",
	TirePassengerFront: "Passenger Front",
	TireDriverRear:     "Driver Rear",
	TirePassengerRear:  "Passenger Rear",
}

var tireAbbrev = map[TirePosition]string{
	TireDriverFront:    "DF",
	TirePassengerFront: "PF",
	TireDriverRear:     "DR",
	TirePassengerRear:  "PR",
}

func TirePositions() []TirePosition {
	return []TirePosition{TireDriverFront, TirePassengerFront, TireDriverRear, TirePassengerRear}
}

func (p TirePosition) Label() string  { return tireLabels[p] }
func (p TirePosition) Abbrev() string { return tireAbbrev[p] }

// TirePressureSet holds the four PSI readings taken on a pre-trip inspection.
// A nil reading was never taken.
type TirePressureSet struct {
	DriverFront    *decimal.Decimal `json:"driver_front,omitempty"`
	PassengerFront *decimal.Decimal `json:"passenger_front,omitempty"`
	DriverRear     *decimal.Decimal `json:"driver_rear,omitempty"`
	PassengerRear  *decimal.Decimal `json:"passenger_rear,omitempty"`
}

func (s TirePressureSet) Get(p TirePosition) *decimal.Decimal {
	switch p {
	case TireDriverFront:
		return s.DriverFront
	case TirePassengerFront:
		return s.PassengerFront
	case TireDriverRear:
		return s.DriverRear
	case TirePassengerRear:
		return s.PassengerRear
	}
	return nil
}

// Reading formats the PSI at p, or missing when it was not recorded.
func (s *TirePressureSet) Reading(p TirePosition, missing string) string {
	if s == nil {
		return missing
	}
	if v := s.Get(p); v != nil {
		return v.String()
	}
	return missing
}

// Checklist is the answer set of one inspection.
type Checklist struct {
	Answers       map[QuestionID]Answer `json:"answers"`
	Comments      map[QuestionID]string `json:"comments,omitempty"`
	TirePressures *TirePressureSet      `json:"tire_pressures,omitempty"`
}

func (c Checklist) Answer(id QuestionID) Answer {
	return c.Answers[id]
}

func (c Checklist) Comment(id QuestionID) string {
	return c.Comments[id]
}

// Flagged reports whether the stored answer for id requires an explanation.
func (c Checklist) Flagged(id QuestionID) bool {
	return RequiresExplanation(id, c.Answers[id])
}

// Validate checks the checklist against the trip type's question set and
// returns field errors keyed by path, or nil when it is complete.
func (c Checklist) Validate(t TripType) map[string]string {
	fields := make(map[string]string)

	for id, a := range c.Answers {
		if _, ok := questions[id]; !ok {
			fields["answers."+string(id)] = "unknown question"
			continue
		}
		if a != "" && !a.IsValid() {
			fields["answers."+string(id)] = fmt.Sprintf("must be %q or %q", AnswerYes, AnswerNo)
		}
	}

	for _, q := range QuestionsFor(t) {
		key := string(q.ID)
		a := c.Answers[q.ID]
		if !a.IsValid() {
			if _, exists := fields["answers."+key]; !exists {
				fields["answers."+key] = "is required"
			}
			continue
		}
		if RequiresExplanation(q.ID, a) && strings.TrimSpace(c.Comments[q.ID]) == "" {
			fields["comments."+key] = "an explanation is required for this answer"
		}
	}

	if t == PreTrip {
		if c.TirePressures == nil {
			fields["tire_pressures"] = "is required for a pre-trip inspection"
		} else {
			for _, p := range TirePositions() {
				switch v := c.TirePressures.Get(p); {
				case v == nil:
					fields["tire_pressures."+string(p)] = "is required"
				case v.IsNegative():
					fields["tire_pressures."+string(p)] = "must not be negative"
				}
			}
		}
	}

	if len(fields) == 0 {
		return nil
	}
	return fields
}

// Normalize keeps only what the trip type records: answers to its own
// questions, trimmed comments on flagged answers, and tire pressures for
// pre-trip inspections.
func (c Checklist) Normalize(t TripType) Checklist {
	out := Checklist{
		Answers:  make(map[QuestionID]Answer),
		Comments: make(map[QuestionID]string),
	}

	for _, q := range QuestionsFor(t) {
		a, ok := c.Answers[q.ID]
		if !ok {
			continue
		}
		out.Answers[q.ID] = a
		if RequiresExplanation(q.ID, a) {
			if comment := strings.TrimSpace(c.Comments[q.ID]); comment != "" {
				out.Comments[q.ID] = comment
			}
		}
	}

	if t == PreTrip && c.TirePressures != nil {
		tp := *c.TirePressures
		out.TirePressures = &tp
	}

	return out
}

// IssueCount counts flagged answers among the trip type's questions.
func (c Checklist) IssueCount(t TripType) int {
	n := 0
	for _, q := range QuestionsFor(t) {
		if c.Flagged(q.ID) {
			n++
		}
	}
	return n
}
