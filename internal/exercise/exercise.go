package exercise

// record is the scored state of one item.
type record struct {
	state   ItemState
	verdict Verdict
}

// Exercise tracks scoring for one exercise instance. It is not safe for
// concurrent use; all mutation is expected to come from one UI loop.
type Exercise struct {
	opts  Options
	items []Item
	byID  map[string]int

	answered map[string]*record
	correct  int
	total    int
}

// New validates the item pool and options and returns a fresh exercise.
func New(items []Item, opts Options) (*Exercise, error) {
	if !opts.Comparison.Valid() {
		return nil, invalidf("unknown comparison %q", opts.Comparison)
	}
	if opts.ScoringUnit == "" {
		opts.ScoringUnit = PerItem
	}
	if !opts.ScoringUnit.Valid() {
		return nil, invalidf("unknown scoring unit %q", opts.ScoringUnit)
	}

	e := &Exercise{opts: opts}
	if err := e.install(items); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Exercise) install(items []Item) error {
	if len(items) == 0 {
		return invalidf("no items")
	}
	byID := make(map[string]int, len(items))
	for i, it := range items {
		if it.ID == "" {
			return invalidf("item %d has no id", i)
		}
		if _, dup := byID[it.ID]; dup {
			return invalidf("duplicate item id %q", it.ID)
		}
		if len(it.Accept) == 0 || Normalize(it.Accept[0]) == "" {
			return invalidf("item %q has no accepted answer", it.ID)
		}
		byID[it.ID] = i
	}

	pool := make([]Item, len(items))
	copy(pool, items)

	e.items = pool
	e.byID = byID
	e.Reset()
	return nil
}

// Options returns the exercise configuration.
func (e *Exercise) Options() Options {
	return e.opts
}

// Items returns a copy of the item pool in presentation order.
func (e *Exercise) Items() []Item {
	out := make([]Item, len(e.items))
	copy(out, e.items)
	return out
}

// Len returns the number of items.
func (e *Exercise) Len() int {
	return len(e.items)
}

// Item looks up an item by id.
func (e *Exercise) Item(id string) (Item, bool) {
	i, ok := e.byID[id]
	if !ok {
		return Item{}, false
	}
	return e.items[i], true
}

// Submit classifies a response for one item and updates the counters.
//
// A locked item (answered without retry, or answered correctly) returns the
// verdict recorded on first scoring and leaves the counters untouched.
func (e *Exercise) Submit(itemID, response string) (Verdict, error) {
	item, ok := e.Item(itemID)
	if !ok {
		return Verdict{}, &ErrInvalidItemReference{ItemID: itemID}
	}
	return e.submit(item, response), nil
}

func (e *Exercise) submit(item Item, response string) Verdict {
	rec := e.answered[item.ID]
	if rec != nil && e.locked(rec) {
		return rec.verdict
	}

	normalized := Normalize(response)
	if normalized == "" {
		return Verdict{
			Blank:           true,
			CanonicalAnswer: item.Canonical(),
		}
	}

	v := Verdict{
		Correct:         matches(e.opts.Comparison, item, normalized),
		CanonicalAnswer: item.Canonical(),
		Explanation:     item.Explanation,
	}

	firstScore := rec == nil
	if rec == nil {
		rec = &record{}
		e.answered[item.ID] = rec
	}

	switch e.opts.ScoringUnit {
	case PerAttempt:
		e.total++
		if v.Correct {
			e.correct++
		}
	default:
		if firstScore {
			e.total++
		}
		if v.Correct {
			e.correct++
		}
	}

	if v.Correct {
		rec.state = AnsweredCorrect
	} else {
		rec.state = AnsweredIncorrect
	}
	rec.verdict = v
	return v
}

func (e *Exercise) locked(rec *record) bool {
	return rec.state == AnsweredCorrect || !e.opts.AllowRetry
}

// Check evaluates slot placements (item id → slot name) for sorting and
// matching exercises. Partial placements are reported but not scored;
// once every item has a slot each placement is scored as a submission.
func (e *Exercise) Check(placements map[string]string) (CheckResult, error) {
	res := CheckResult{Total: len(e.items)}

	for id, slot := range placements {
		item, ok := e.Item(id)
		if !ok {
			return CheckResult{}, &ErrInvalidItemReference{ItemID: id}
		}
		normalized := Normalize(slot)
		if normalized == "" {
			continue
		}
		res.Filled++
		if matches(e.opts.Comparison, item, normalized) {
			res.Correct++
		}
	}

	res.Complete = res.Filled == res.Total
	if !res.Complete {
		return res, nil
	}

	res.Verdicts = make(map[string]Verdict, len(e.items))
	for _, item := range e.items {
		res.Verdicts[item.ID] = e.submit(item, placements[item.ID])
	}
	return res, nil
}

// State returns the lifecycle state of an item. Unknown ids report
// Unanswered.
func (e *Exercise) State(itemID string) ItemState {
	if rec := e.answered[itemID]; rec != nil {
		return rec.state
	}
	return Unanswered
}

// Verdict returns the recorded verdict for an item, if it was scored.
func (e *Exercise) Verdict(itemID string) (Verdict, bool) {
	rec := e.answered[itemID]
	if rec == nil {
		return Verdict{}, false
	}
	return rec.verdict, true
}

// Done reports whether every item is locked.
func (e *Exercise) Done() bool {
	for _, it := range e.items {
		rec := e.answered[it.ID]
		if rec == nil || !e.locked(rec) {
			return false
		}
	}
	return true
}

// Snapshot returns the current counter.
func (e *Exercise) Snapshot() Score {
	return Score{Correct: e.correct, Total: e.total}
}

// Reset clears all answers and counters, keeping the item pool.
func (e *Exercise) Reset() {
	e.answered = make(map[string]*record, len(e.items))
	e.correct = 0
	e.total = 0
}

// Replace installs a new item pool (for example a reshuffled set) and
// resets. On error the exercise is left unchanged.
func (e *Exercise) Replace(items []Item) error {
	fresh := &Exercise{opts: e.opts}
	if err := fresh.install(items); err != nil {
		return err
	}
	*e = *fresh
	return nil
}
