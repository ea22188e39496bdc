package dashboard

import (
	"context"

	"go.uber.org/zap"

	"github.com/and161185/goalkeeper/internal/client/session"
	"github.com/and161185/goalkeeper/internal/errs"
	"github.com/and161185/goalkeeper/internal/goals"
	"github.com/and161185/goalkeeper/internal/model"
)

// DefaultUpcoming is how many incomplete goals the summary lists.
const DefaultUpcoming = 3

// Summary is what the dashboard shows.
type Summary struct {
	DisplayName string       `json:"display_name"`
	Quote       Quote        `json:"quote"`
	Progress    int          `json:"progress"`
	Upcoming    []model.Goal `json:"upcoming"`
	Online      bool         `json:"online"`
}

// Sessions exposes the signed-in session.
type Sessions interface {
	Current() (session.Session, bool)
}

// Service builds summaries from the goal manager and the quote endpoint.
type Service struct {
	sessions Sessions
	goals    *goals.Manager
	quotes   *QuoteFetcher
	upcoming int
	log      *zap.Logger
}

func NewService(sessions Sessions, mgr *goals.Manager, quotes *QuoteFetcher, upcoming int, log *zap.Logger) *Service {
	if upcoming <= 0 {
		upcoming = DefaultUpcoming
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{sessions: sessions, goals: mgr, quotes: quotes, upcoming: upcoming, log: log}
}

// Summary loads goals and fetches the quote concurrently. A failed quote
// falls back to FallbackQuote; a failed goal load fails the summary.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	sess, ok := s.sessions.Current()
	if !ok {
		return Summary{}, errs.ErrUnauthenticated
	}

	quoteCh := make(chan Quote, 1)
	qctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		quoteCh <- s.quote(qctx)
	}()

	snap, err := s.goals.Snapshot(ctx)
	if err != nil {
		cancel()
		<-quoteCh
		return Summary{}, err
	}

	return Summary{
		DisplayName: sess.DisplayName,
		Quote:       <-quoteCh,
		Progress:    goals.Progress(snap.Goals),
		Upcoming:    Upcoming(snap.Goals, s.upcoming),
		Online:      snap.Online,
	}, nil
}

func (s *Service) quote(ctx context.Context) Quote {
	if s.quotes == nil {
		return FallbackQuote
	}
	q, err := s.quotes.Fetch(ctx)
	if err != nil {
		s.log.Warn("quote fetch failed, using fallback", zap.Error(err))
		return FallbackQuote
	}
	return q
}

// Upcoming returns up to n incomplete goals in list order.
func Upcoming(gs []model.Goal, n int) []model.Goal {
	out := make([]model.Goal, 0, n)
	for _, g := range gs {
		if len(out) == n {
			break
		}
		if !g.Completed {
			out = append(out, g)
		}
	}
	return out
}
