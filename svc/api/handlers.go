package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrymomot/notifykit/handler"
	"github.com/dmitrymomot/notifykit/pkg/channel"
	"github.com/dmitrymomot/notifykit/svc/dispatch"
)

var (
	errTemplateNotFound     = handler.NewHTTPError(http.StatusNotFound, "template_not_found")
	errChannelNotConfigured = handler.NewHTTPError(http.StatusUnprocessableEntity, "channel_not_configured")
)

type handlers struct {
	dispatcher Dispatcher
	history    dispatch.DeliveryHistory
}

// dispatch always answers 200 once the body decodes. An event the engine
// cannot process is reported in the result's problems.
func (h *handlers) dispatch(ctx handler.Context, ev dispatch.Event) handler.Response {
	return handler.JSON(h.dispatcher.Dispatch(ctx, ev))
}

func (h *handlers) testSend(ctx handler.Context, req dispatch.TestRequest) handler.Response {
	res, err := h.dispatcher.TestSend(ctx, req)
	switch {
	case err == nil:
		return handler.JSON(res)
	case errors.Is(err, dispatch.ErrInvalidRequest):
		return handler.Fail(testRequestErrors(req))
	case errors.Is(err, dispatch.ErrTemplateNotFound):
		return handler.Fail(errTemplateNotFound)
	case errors.Is(err, dispatch.ErrConfiguration):
		return handler.Fail(errChannelNotConfigured)
	}
	return handler.Fail(err)
}

func testRequestErrors(req dispatch.TestRequest) handler.ValidationError {
	verr := handler.NewValidationError()
	if strings.TrimSpace(req.TemplateID) == "" {
		verr.Add("template_id", "is required")
	}
	if !req.Channel.Valid() {
		verr.Add("channel", "must be one of: "+strings.Join(channelNames(), ", "))
	}
	if strings.TrimSpace(req.Address) == "" {
		verr.Add("recipient", "is required")
	}
	return verr
}

func channelNames() []string {
	all := channel.All()
	names := make([]string, 0, len(all))
	for _, ch := range all {
		names = append(names, string(ch))
	}
	return names
}

type deliveriesQuery struct {
	ReferenceType string
	ReferenceID   string
}

func bindDeliveriesQuery(r *http.Request, v any) error {
	q, ok := v.(*deliveriesQuery)
	if !ok {
		return handler.ErrBinderNotApplicable
	}
	q.ReferenceType = strings.TrimSpace(r.URL.Query().Get("reference_type"))
	q.ReferenceID = strings.TrimSpace(r.URL.Query().Get("reference_id"))

	verr := handler.NewValidationError()
	if q.ReferenceType == "" {
		verr.Add("reference_type", "is required")
	}
	if q.ReferenceID == "" {
		verr.Add("reference_id", "is required")
	}
	if !verr.IsEmpty() {
		return verr
	}
	return nil
}

func (h *handlers) deliveries(ctx handler.Context, q deliveriesQuery) handler.Response {
	entries, err := h.history.ListByReference(ctx, q.ReferenceType, q.ReferenceID)
	if err != nil {
		return handler.Fail(err)
	}
	if entries == nil {
		entries = []dispatch.LogEntry{}
	}
	return handler.JSON(entries, handler.WithJSONMeta(map[string]any{"count": len(entries)}))
}
