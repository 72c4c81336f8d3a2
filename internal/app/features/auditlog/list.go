// internal/app/features/auditlog/list.go
package auditlog

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dalemusser/gradebook/internal/app/store/audit"
	"github.com/dalemusser/gradebook/internal/app/system/paging"
	"github.com/dalemusser/gradebook/internal/app/system/timeouts"
	"github.com/dalemusser/gradebook/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

const pageSize = 50

const dateLayout = "2006-01-02"

// ServeList handles GET /audit: the newest audit events, filtered by
// tenant, category, event type and date range.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	data, err := h.load(r)
	if err != nil {
		h.ErrLog.HTMXLogServerError(w, r, "database error", err, "Greška prilikom čitanja audit zapisa.", "/")
		return
	}
	templates.Render(w, r, "audit_list", data)
}

func (h *Handler) load(r *http.Request) (listData, error) {
	q := r.URL.Query()
	data := listData{
		BaseVM:     viewdata.NewBaseVM(r, "Audit zapis", "/"),
		TenantID:   strings.TrimSpace(q.Get("tenant")),
		Category:   strings.TrimSpace(q.Get("category")),
		EventType:  strings.TrimSpace(q.Get("event_type")),
		StartDate:  strings.TrimSpace(q.Get("start_date")),
		EndDate:    strings.TrimSpace(q.Get("end_date")),
		Categories: allCategories(),
		Page:       paging.ParsePage(r),
	}
	data.EventTypes = eventTypesForCategory(data.Category)
	data.Query = data.query()

	if h.Store == nil {
		data.Disabled = true
		return data, nil
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "audit log list")
	defer cancel()

	filter := data.filter()
	events, err := h.Store.Query(ctx, filter)
	if err != nil {
		h.Log.Error("failed to query audit events", zap.Error(err))
		return data, err
	}
	total, err := h.Store.CountByFilter(ctx, filter)
	if err != nil {
		h.Log.Error("failed to count audit events", zap.Error(err))
		return data, err
	}

	data.Items = make([]listItem, 0, len(events))
	for _, e := range events {
		data.Items = append(data.Items, toItem(e))
	}
	data.Total = total
	data.Paging = paging.Compute(int(total), data.Page, pageSize)
	return data, nil
}

// filter builds the store query. Unparseable dates are ignored; the end
// date includes its whole day.
func (d listData) filter() audit.QueryFilter {
	f := audit.QueryFilter{
		TenantID:  d.TenantID,
		Category:  d.Category,
		EventType: d.EventType,
		Limit:     pageSize,
		Offset:    int64((d.Page - 1) * pageSize),
	}
	if t, err := time.ParseInLocation(dateLayout, d.StartDate, time.Local); err == nil {
		f.StartTime = &t
	}
	if t, err := time.ParseInLocation(dateLayout, d.EndDate, time.Local); err == nil {
		end := t.Add(24*time.Hour - time.Nanosecond)
		f.EndTime = &end
	}
	return f
}

// query is the filter part of the page URL, kept by the pager links.
func (d listData) query() string {
	v := url.Values{}
	for k, s := range map[string]string{
		"tenant":     d.TenantID,
		"category":   d.Category,
		"event_type": d.EventType,
		"start_date": d.StartDate,
		"end_date":   d.EndDate,
	} {
		if s != "" {
			v.Set(k, s)
		}
	}
	if enc := v.Encode(); enc != "" {
		return enc + "&"
	}
	return ""
}
