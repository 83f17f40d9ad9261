package metrics

import "github.com/san-kum/xpbdsim/internal/xpbd"

// Contacts is the mean number of collision constraints generated per step.
type Contacts struct {
	name    string
	sum     int
	samples int
}

func NewContacts() *Contacts {
	return &Contacts{name: "contacts"}
}

func (c *Contacts) Name() string {
	return c.name
}

func (c *Contacts) Observe(w *xpbd.Simulation, t float64) {
	c.sum += w.Stats().Contacts
	c.samples++
}

func (c *Contacts) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return float64(c.sum) / float64(c.samples)
}

func (c *Contacts) Reset() {
	c.sum = 0
	c.samples = 0
}
