package table

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/adsdrill/drillctl/internal/dataset"
	"github.com/adsdrill/drillctl/internal/log"
	"github.com/adsdrill/drillctl/internal/record"
)

// Phase is the lifecycle state of a controller's dataset.
type Phase int

const (
	Idle Phase = iota
	Loading
	Ready
	Failed
)

func (p Phase) String() string {
	switch p {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

// Ticket identifies one load request. Only the most recently issued ticket can
// be applied.
type Ticket struct {
	Key       string
	Seq       uint64
	RequestID string
}

// Controller owns the dataset and view state for one hierarchy level.
//
// A Controller is not safe for concurrent use. The thunk returned by Load may
// run on any goroutine, but its Outcome must be handed back through Apply on
// the goroutine that owns the controller.
type Controller struct {
	schema *record.Schema

	phase Phase
	key   string
	seq   uint64
	gen   uint64
	err   error

	state ViewState
	view  View
	memo  memo
}

// NewController returns an Idle controller waiting for its first key.
func NewController(schema *record.Schema) *Controller {
	return &Controller{schema: schema}
}

// NewReadyController returns a controller already holding ds, used for the top
// level whose dataset is loaded once up front.
func NewReadyController(schema *record.Schema, ds record.Dataset) *Controller {
	c := &Controller{schema: schema}
	c.Replace(ds)
	return c
}

func (c *Controller) Schema() *record.Schema { return c.schema }
func (c *Controller) Phase() Phase           { return c.phase }
func (c *Controller) Key() string            { return c.key }
func (c *Controller) Err() error             { return c.err }
func (c *Controller) View() View             { return c.view }
func (c *Controller) State() ViewState       { return c.state }

// Row returns the i-th visible record of the current page.
func (c *Controller) Row(i int) (record.Record, bool) {
	if c.phase != Ready || i < 0 || i >= len(c.view.Visible) {
		return record.Record{}, false
	}
	return c.view.Visible[i], true
}

// Observe switches the controller to key and starts a new load. Any previous
// dataset, filter, sort and page are discarded. Observing the current key again
// issues a fresh ticket, which is how reloads are requested.
func (c *Controller) Observe(key string) Ticket {
	c.seq++
	c.key = key
	c.phase = Loading
	c.err = nil
	c.state = ViewState{}
	c.view = View{}
	c.memo.reset()
	return Ticket{Key: key, Seq: c.seq, RequestID: uuid.NewString()}
}

// Apply hands a finished load back to the controller. It returns false and
// changes nothing when the ticket is no longer current.
func (c *Controller) Apply(t Ticket, o dataset.Outcome) bool {
	if c.phase != Loading || t.Key != c.key || t.Seq != c.seq {
		return false
	}
	if o.Failed() {
		c.phase = Failed
		c.err = o.Err
		return true
	}
	c.gen++
	c.recompute(NewViewState(o.Dataset, c.gen))
	return true
}

// Replace swaps in a new dataset for the current key while keeping the filter
// and sort selection.
func (c *Controller) Replace(ds record.Dataset) {
	c.gen++
	next := c.state
	if c.phase != Ready {
		next = ViewState{CurrentPage: 1}
	}
	next.Dataset = ds
	next.generation = c.gen
	c.memo.reset()
	c.recompute(next)
}

// Load observes key and returns the ticket together with a blocking function
// that performs the load.
func (c *Controller) Load(ctx context.Context, loader dataset.Loader, key string) (Ticket, func() dataset.Outcome) {
	t := c.Observe(key)
	schema := c.schema.Name
	return t, func() dataset.Outcome {
		logger := log.FromContext(ctx).With(
			slog.String("schema", schema),
			slog.String("key", t.Key),
			slog.String("request_id", t.RequestID),
		)
		logger.Debug("loading dataset")
		start := time.Now()
		ds, err := loader.Load(ctx, t.Key)
		if err != nil {
			logger.Warn("dataset load failed", slog.Any("error", err))
			return dataset.Outcome{Key: t.Key, Err: err}
		}
		logger.Debug("dataset loaded",
			slog.Int("records", len(ds)),
			slog.Duration("elapsed", time.Since(start)))
		return dataset.Outcome{Key: t.Key, Dataset: ds}
	}
}

func (c *Controller) SetFilter(query string) error { return c.Dispatch(SetFilter{Query: query}) }

func (c *Controller) RequestSort(field string) error { return c.Dispatch(RequestSort{Field: field}) }

func (c *Controller) GotoPage(page int) error { return c.Dispatch(GotoPage{Page: page}) }

func (c *Controller) NextPage() error { return c.Dispatch(NextPage{}) }

func (c *Controller) PrevPage() error { return c.Dispatch(PrevPage{}) }

func (c *Controller) FirstPage() error { return c.Dispatch(FirstPage{}) }

func (c *Controller) LastPage() error { return c.Dispatch(LastPage{}) }

// Dispatch applies a user event and recomputes the view. Events are ignored
// unless the controller is Ready.
func (c *Controller) Dispatch(e Event) error {
	if c.phase != Ready {
		return nil
	}

	switch ev := e.(type) {
	case NextPage:
		if c.view.Buttons.NextDisabled {
			return nil
		}
	case PrevPage:
		if c.view.Buttons.PrevDisabled {
			return nil
		}
	case LastPage:
		ev.TotalPages = c.view.TotalPages
		e = ev
	}

	return c.recompute(Reduce(c.state, e))
}

func (c *Controller) recompute(next ViewState) error {
	if state, view, ok := c.memo.lookup(next); ok {
		c.state, c.view = state, view
		c.phase = Ready
		return nil
	}
	state, view, err := Recompute(c.schema, next)
	if err != nil {
		return err
	}
	c.memo.store(next, state, view)
	c.state, c.view = state, view
	c.phase = Ready
	c.err = nil
	return nil
}
