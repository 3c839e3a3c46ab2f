package http

import (
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/DataRozhlas/covid-obce/internal/domain"
)

// listRequest carries the query parameters of the list endpoints.
type listRequest struct {
	Sort       string `query:"sort"        validate:"omitempty,oneof=total_cases total_cases_per_100000 last_7_days_cases last_7_days_cases_per_100000"`
	Order      string `query:"order"       validate:"omitempty,oneof=asc desc"`
	Search     string `query:"q"           validate:"max=100"`
	Offset     int    `query:"offset"      validate:"min=0"`
	Limit      int    `query:"limit"       validate:"min=0,max=500"`
	All        bool   `query:"all"`
	OnlyLarger bool   `query:"only_larger"`
}

func (r listRequest) query() domain.ListQuery {
	return domain.ListQuery{
		Sort:       domain.SortKey(r.Sort),
		Order:      domain.SortOrder(r.Order),
		Search:     r.Search,
		Offset:     r.Offset,
		Limit:      r.Limit,
		All:        r.All,
		OnlyLarger: r.OnlyLarger,
	}
}

func bindList(c echo.Context) (domain.ListQuery, error) {
	var req listRequest
	if err := c.Bind(&req); err != nil {
		return domain.ListQuery{}, err
	}
	if err := c.Validate(&req); err != nil {
		return domain.ListQuery{}, err
	}
	return req.query(), nil
}

type metaResponse struct {
	ID             string            `json:"id"`
	GeneratedAt    time.Time         `json:"generated_at"`
	Layout         string            `json:"layout"`
	Weeks          int               `json:"weeks"`
	Thresholds     domain.Thresholds `json:"thresholds"`
	Districts      int               `json:"districts"`
	Municipalities int               `json:"municipalities"`
	RowsConsumed   int               `json:"rows_consumed"`
	RowsSkipped    int               `json:"rows_skipped"`
}

func (s *Server) handleMeta(c echo.Context) error {
	snap, err := s.snapshots.Latest()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, metaResponse{
		ID:             snap.ID,
		GeneratedAt:    snap.GeneratedAt,
		Layout:         snap.Layout,
		Weeks:          snap.Weeks,
		Thresholds:     snap.Thresholds,
		Districts:      len(snap.Districts),
		Municipalities: len(snap.Municipalities),
		RowsConsumed:   snap.RowsConsumed,
		RowsSkipped:    snap.RowsSkipped,
	})
}

func (s *Server) handleDistricts(c echo.Context) error {
	q, err := bindList(c)
	if err != nil {
		return err
	}
	snap, err := s.snapshots.Latest()
	if err != nil {
		return err
	}

	page, err := domain.QueryDistricts(snap.Districts, q)
	if err != nil {
		return err
	}
	items := make([]districtView, len(page.Items))
	for i, d := range page.Items {
		items[i] = newDistrictView(d)
	}
	return c.JSON(http.StatusOK, pageResponse[districtView]{Total: page.Total, Items: items})
}

func (s *Server) handleDistrict(c echo.Context) error {
	name, err := url.PathUnescape(c.Param("name"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid district name")
	}
	snap, err := s.snapshots.Latest()
	if err != nil {
		return err
	}

	d, ok := snap.District(name)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "district not found")
	}
	return c.JSON(http.StatusOK, newDistrictView(d))
}

func (s *Server) handleMunicipalities(c echo.Context) error {
	q, err := bindList(c)
	if err != nil {
		return err
	}
	snap, err := s.snapshots.Latest()
	if err != nil {
		return err
	}

	page, err := domain.QueryMunicipalities(snap.Municipalities, q)
	if err != nil {
		return err
	}
	items := make([]municipalityView, len(page.Items))
	for i, m := range page.Items {
		items[i] = newMunicipalityView(m)
	}
	return c.JSON(http.StatusOK, pageResponse[municipalityView]{Total: page.Total, Items: items})
}
