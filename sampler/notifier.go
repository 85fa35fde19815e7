package sampler

// Notifier is told which dataset every batch came from. Notify runs
// synchronously right after a batch is produced and before Pass.Next returns,
// so a consumer that reads its own state between calls always sees the source
// of the batch it just received.
//
// DatasetNames must hold one display name per dataset, in dataset order.
type Notifier interface {
	// Active reports whether per-batch notifications are wanted at all.
	Active() bool
	DatasetNames() []string
	Notify(datasetIndex int, datasetName string)
}

// NameSlot is a Notifier that keeps the most recent dataset in a single slot.
// It is not safe for concurrent use; one consumer drives one pass at a time.
// A nil *NameSlot is inactive and has no names.
type NameSlot struct {
	// Enabled toggles notifications without detaching the slot.
	Enabled bool
	Names   []string

	index int
	name  string
}

// NewNameSlot returns an enabled slot for the given dataset names.
func NewNameSlot(names ...string) *NameSlot {
	return &NameSlot{Enabled: true, Names: names, index: -1}
}

func (s *NameSlot) Active() bool { return s != nil && s.Enabled }

func (s *NameSlot) DatasetNames() []string {
	if s == nil {
		return nil
	}
	return s.Names
}

func (s *NameSlot) Notify(datasetIndex int, datasetName string) {
	if s == nil {
		return
	}
	s.index = datasetIndex
	s.name = datasetName
}

// Current returns the dataset written by the last notification. index is -1
// before the first one.
func (s *NameSlot) Current() (index int, name string) {
	if s == nil {
		return -1, ""
	}
	return s.index, s.name
}
