package seed

import (
	"fmt"
	"math"
	"math/rand"
	"time"
)

// Event is one synthetic commerce event row for demo datasets.
type Event struct {
	EventID    int64
	UserID     string
	SessionID  string
	EventType  string
	Amount     float64
	Currency   string
	Country    string
	Device     string
	OccurredAt time.Time
}

// Generator produces a deterministic stream of demo events for a given
// seed, so seeded databases are reproducible across runs.
type Generator struct {
	rnd             *rand.Rand
	userCardinality int
	sequence        int64
	now             func() time.Time
}

func NewGenerator(seed int64, userCardinality int) *Generator {
	if userCardinality <= 0 {
		userCardinality = 200
	}
	return &Generator{
		rnd:             rand.New(rand.NewSource(seed)),
		userCardinality: userCardinality,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

func (g *Generator) Next() Event {
	g.sequence++
	eventType := g.pickEventType()
	return Event{
		EventID:    g.sequence,
		UserID:     fmt.Sprintf("user-%04d", g.rnd.Intn(g.userCardinality)+1),
		SessionID:  fmt.Sprintf("sess-%08x", g.rnd.Uint32()),
		EventType:  eventType,
		Amount:     g.pickAmount(eventType),
		Currency:   "USD",
		Country:    pickOne(g.rnd, []string{"US", "DE", "GB", "IN", "JP", "BR"}),
		Device:     pickOne(g.rnd, []string{"desktop", "mobile", "tablet"}),
		OccurredAt: g.now(),
	}
}

func (g *Generator) pickEventType() string {
	p := g.rnd.Intn(100)
	switch {
	case p < 55:
		return "page_view"
	case p < 75:
		return "search"
	case p < 88:
		return "add_to_cart"
	case p < 97:
		return "checkout"
	default:
		return "purchase"
	}
}

func (g *Generator) pickAmount(eventType string) float64 {
	switch eventType {
	case "purchase":
		return round2(20 + g.rnd.Float64()*280)
	case "checkout":
		return round2(15 + g.rnd.Float64()*240)
	case "add_to_cart":
		return round2(5 + g.rnd.Float64()*120)
	default:
		return 0
	}
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}

func pickOne(r *rand.Rand, values []string) string {
	return values[r.Intn(len(values))]
}
