package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/berfenger/froniuslights/internal/core/domain"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type errorView struct {
	Error string `json:"error"`
}

type accessoryView struct {
	Id           string   `json:"id"`
	Name         string   `json:"name"`
	Model        string   `json:"model,omitempty"`
	SerialNumber string   `json:"serial_number,omitempty"`
	On           *bool    `json:"on,omitempty"`
	Brightness   *float64 `json:"brightness,omitempty"`
	LightLevel   *float64 `json:"ambient_light_level,omitempty"`
	Available    *bool    `json:"available,omitempty"`
}

type characteristicView struct {
	Characteristic domain.Characteristic `json:"characteristic"`
	Value          any                   `json:"value"`
}

type setCharacteristicBody struct {
	Value any `json:"value"`
}

var errAccessoryNotFound = errors.New("accessory not found")

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	if s.httpLog {
		e.Use(middleware.Logger())
	}
	e.Use(middleware.Recover())

	e.GET("/healthcheck", s.HealthCheckHandler)
	e.GET("/accessories", s.ListAccessoriesHandler)
	e.GET("/accessories/:id", s.GetAccessoryHandler)
	e.GET("/accessories/:id/characteristics/:characteristic", s.GetCharacteristicHandler)
	e.PUT("/accessories/:id/characteristics/:characteristic", s.SetCharacteristicHandler)
	if s.gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	return e
}

func (s *Server) HealthCheckHandler(c echo.Context) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.ActorHealthRequest{}, 10*time.Second).Result()
	if err != nil {
		return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
	}
	if response, ok := res.(domain.ActorHealthResponse); ok && response.Healthy {
		return c.String(http.StatusOK, "health_check: OK")
	}
	return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
}

func (s *Server) ListAccessoriesHandler(c echo.Context) error {
	list, err := s.listAccessories()
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, errorView{Error: err.Error()})
	}
	views := make([]accessoryView, 0, len(list.Accessories))
	for _, a := range list.Accessories {
		views = append(views, newAccessoryView(a.Info))
	}
	return c.JSON(http.StatusOK, views)
}

func (s *Server) GetAccessoryHandler(c echo.Context) error {
	ref, err := s.findAccessory(c.Param("id"))
	if err != nil {
		return s.errorResponse(c, err)
	}
	res, err := s.rootContext.RequestFuture((*actor.PID)(ref.Ref), domain.GetReadingRequest{}, requestTimeout).Result()
	if err != nil {
		return s.errorResponse(c, err)
	}
	resp, ok := res.(domain.GetReadingResponse)
	if !ok {
		return c.JSON(http.StatusInternalServerError, errorView{Error: "unexpected response"})
	}
	view := newAccessoryView(resp.Accessory)
	view.withReading(resp.Reading)
	return c.JSON(http.StatusOK, view)
}

func (s *Server) GetCharacteristicHandler(c echo.Context) error {
	characteristic, err := domain.ParseCharacteristic(c.Param("characteristic"))
	if err != nil {
		return c.JSON(http.StatusNotFound, errorView{Error: err.Error()})
	}
	ref, err := s.findAccessory(c.Param("id"))
	if err != nil {
		return s.errorResponse(c, err)
	}
	res, err := s.rootContext.RequestFuture((*actor.PID)(ref.Ref), domain.GetCharacteristicRequest{Characteristic: characteristic}, requestTimeout).Result()
	if err != nil {
		return s.errorResponse(c, err)
	}
	resp, ok := res.(domain.GetCharacteristicResponse)
	if !ok {
		return c.JSON(http.StatusInternalServerError, errorView{Error: "unexpected response"})
	}
	if resp.HasResponseError() {
		return s.errorResponse(c, resp.GetResponseError())
	}
	return c.JSON(http.StatusOK, characteristicView{Characteristic: resp.Characteristic, Value: resp.Value})
}

// SetCharacteristicHandler accepts any value and answers with the current one
func (s *Server) SetCharacteristicHandler(c echo.Context) error {
	characteristic, err := domain.ParseCharacteristic(c.Param("characteristic"))
	if err != nil {
		return c.JSON(http.StatusNotFound, errorView{Error: err.Error()})
	}
	var body setCharacteristicBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, errorView{Error: "invalid body"})
	}
	ref, err := s.findAccessory(c.Param("id"))
	if err != nil {
		return s.errorResponse(c, err)
	}
	res, err := s.rootContext.RequestFuture((*actor.PID)(ref.Ref), domain.SetCharacteristicRequest{
		Characteristic: characteristic,
		Value:          body.Value,
	}, requestTimeout).Result()
	if err != nil {
		return s.errorResponse(c, err)
	}
	resp, ok := res.(domain.SetCharacteristicResponse)
	if !ok {
		return c.JSON(http.StatusInternalServerError, errorView{Error: "unexpected response"})
	}
	if resp.HasResponseError() {
		return s.errorResponse(c, resp.GetResponseError())
	}
	return c.JSON(http.StatusOK, characteristicView{Characteristic: resp.Characteristic, Value: resp.Value})
}

func (s *Server) listAccessories() (domain.ListAccessoriesResponse, error) {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.ListAccessoriesRequest{}, requestTimeout).Result()
	if err != nil {
		return domain.ListAccessoriesResponse{}, err
	}
	list, ok := res.(domain.ListAccessoriesResponse)
	if !ok {
		return domain.ListAccessoriesResponse{}, errors.New("unexpected response")
	}
	return list, nil
}

func (s *Server) findAccessory(id string) (domain.AccessoryRef, error) {
	list, err := s.listAccessories()
	if err != nil {
		return domain.AccessoryRef{}, err
	}
	for _, a := range list.Accessories {
		if a.Info.Id == id {
			return a, nil
		}
	}
	return domain.AccessoryRef{}, errAccessoryNotFound
}

func (s *Server) errorResponse(c echo.Context, err error) error {
	switch {
	case errors.Is(err, errAccessoryNotFound), errors.Is(err, domain.ErrNotApplicable):
		return c.JSON(http.StatusNotFound, errorView{Error: err.Error()})
	case errors.Is(err, actor.ErrTimeout):
		return c.JSON(http.StatusGatewayTimeout, errorView{Error: err.Error()})
	}
	return c.JSON(http.StatusServiceUnavailable, errorView{Error: err.Error()})
}

func newAccessoryView(info domain.AccessoryInfo) accessoryView {
	return accessoryView{
		Id:           info.Id,
		Name:         info.Name,
		Model:        info.Identity.Model.Or(""),
		SerialNumber: info.Identity.SerialNumber.Or(""),
	}
}

func (v *accessoryView) withReading(r domain.Reading) {
	available := r.Available()
	v.Available = &available
	if on, err := r.On.Get(); err == nil {
		v.On = &on
	}
	if level, err := r.Level.Get(); err == nil {
		v.Brightness = &level
	}
	if magnitude, err := r.Magnitude.Get(); err == nil {
		v.LightLevel = &magnitude
	}
}
