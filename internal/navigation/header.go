package navigation

import (
	"sync"

	"quillium-client/internal/models"
)

// HeaderItem is one navigation entry as the header renders it.
type HeaderItem struct {
	View    models.View `json:"view"`
	Active  bool        `json:"active"`
	Enabled bool        `json:"enabled"`
}

// Header is a navigation surface that is not the controller's owner. It
// learns about view and data changes only through events and sends its own
// clicks back through the controller.
type Header struct {
	ctrl *Controller

	mu      sync.Mutex
	current models.View
	hasData bool

	unsubscribe []func()
}

type dataSource interface {
	SubscribeDataUpdated(fn func(models.DataUpdatedEvent)) (unsubscribe func())
}

func NewHeader(ctrl *Controller, data dataSource) *Header {
	h := &Header{
		ctrl:    ctrl,
		current: ctrl.View(),
		hasData: ctrl.HasData(),
	}
	h.unsubscribe = append(h.unsubscribe,
		ctrl.Subscribe(func(e models.NavigationEvent) {
			h.mu.Lock()
			h.current = e.View
			h.mu.Unlock()
		}),
		data.SubscribeDataUpdated(func(e models.DataUpdatedEvent) {
			h.mu.Lock()
			h.hasData = e.HasData
			h.mu.Unlock()
		}),
	)
	return h
}

func (h *Header) Items() []HeaderItem {
	h.mu.Lock()
	defer h.mu.Unlock()
	items := make([]HeaderItem, 0, len(models.Views()))
	for _, v := range models.Views() {
		items = append(items, HeaderItem{
			View:    v,
			Active:  v == h.current,
			Enabled: !v.RequiresData() || h.hasData,
		})
	}
	return items
}

func (h *Header) Current() models.View {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

func (h *Header) Click(view models.View) (models.View, error) {
	return h.ctrl.Navigate(string(view))
}

func (h *Header) Close() {
	for _, fn := range h.unsubscribe {
		fn()
	}
}
