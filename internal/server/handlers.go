package server

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/smokyabdulrahman/passerby/internal/api"
	"github.com/smokyabdulrahman/passerby/internal/apperr"
	"github.com/smokyabdulrahman/passerby/internal/location"
	"github.com/smokyabdulrahman/passerby/internal/prayer"
	"github.com/smokyabdulrahman/passerby/internal/ticker"
)

type prayerJSON struct {
	Name   prayer.Name `json:"name"`
	Time   string      `json:"time"`
	Time12 string      `json:"time12"`
}

type calculationJSON struct {
	Method     int    `json:"method"`
	MethodName string `json:"method_name"`
	School     int    `json:"school"`
	SchoolName string `json:"school_name"`
}

type snapshotJSON struct {
	ticker.Snapshot
	Kind      string `json:"kind"`
	Countdown string `json:"countdown"`
	Remaining int    `json:"seconds_until_next"`
}

type stateResponse struct {
	Location    location.Location `json:"location"`
	Calculation calculationJSON   `json:"calculation"`
	Date        api.Dates         `json:"date"`
	Timezone    string            `json:"timezone,omitempty"`
	Prayers     []prayerJSON      `json:"prayers"`
	State       *snapshotJSON     `json:"state"`
	// StateError explains a null State.
	StateError *errorJSON `json:"state_error,omitempty"`
}

type errorJSON struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func (s *Server) getState(*gin.Context) (any, error) {
	v := s.coord.View()

	resp := stateResponse{
		Location:    v.Location,
		Calculation: describeCalculation(v.Calculation),
		Date:        v.Dates,
		Timezone:    v.Timezone,
		Prayers:     make([]prayerJSON, 0, len(v.Prayers)),
	}
	for _, p := range v.Prayers {
		resp.Prayers = append(resp.Prayers, prayerJSON{
			Name:   p.Name,
			Time:   p.Clock,
			Time12: prayer.FormatTwelveHour(p.Clock),
		})
	}

	now := s.coord.Now()
	st, err := prayer.ComputeState(v.Prayers, now)
	if err != nil {
		if last := s.coord.LastErr(); last != nil {
			err = last
		}
		resp.StateError = &errorJSON{Error: apperr.Message(err), Kind: apperr.Kind(err)}
		return resp, nil
	}

	snap := ticker.NewSnapshot(st, now)
	resp.State = &snapshotJSON{
		Snapshot:  snap,
		Kind:      st.Kind(),
		Countdown: snap.Countdown(),
		Remaining: snap.SecondsUntilNext(),
	}
	return resp, nil
}

func describeCalculation(calc prayer.Calculation) calculationJSON {
	out := calculationJSON{
		Method:     calc.Method,
		School:     int(calc.School),
		SchoolName: calc.School.String(),
	}
	if m, err := prayer.LookupMethod(calc.Method); err == nil {
		out.MethodName = m.Name
	}
	return out
}

type schoolJSON struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Server) getMethods(*gin.Context) (any, error) {
	schools := []schoolJSON{}
	for _, sc := range []prayer.School{prayer.Shafi, prayer.Hanafi} {
		schools = append(schools, schoolJSON{ID: int(sc), Name: sc.String(), Description: sc.Description()})
	}
	return gin.H{
		"methods": prayer.Methods,
		"schools": schools,
		"default": prayer.DefaultCalculation(),
	}, nil
}

func (s *Server) getLocations(c *gin.Context) (any, error) {
	regions := location.Search(c.Query("q"))
	if regions == nil {
		regions = []location.Region{}
	}
	return gin.H{"regions": regions}, nil
}

func (s *Server) getCities(c *gin.Context) (any, error) {
	code := c.Param("code")
	country, err := location.LookupCountry(code)
	if err != nil {
		return nil, err
	}
	cities, err := location.Cities(code, c.Query("q"))
	if err != nil {
		return nil, err
	}
	if cities == nil {
		cities = []string{}
	}
	return gin.H{"country": country.Code, "name": country.Name, "cities": cities}, nil
}

type locationRequest struct {
	City    string `json:"city"`
	Country string `json:"country"`
}

func (s *Server) putLocation(c *gin.Context) (any, error) {
	var req locationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrInvalidRequest, err)
	}
	loc, err := location.Resolve(req.City, req.Country)
	if err != nil {
		return nil, err
	}
	if err := s.coord.SelectLocation(c.Request.Context(), loc); err != nil {
		return nil, err
	}
	return s.getState(c)
}

func (s *Server) detectLocation(c *gin.Context) (any, error) {
	if _, err := s.coord.UseMyLocation(c.Request.Context()); err != nil {
		return nil, err
	}
	return s.getState(c)
}

type settingsRequest struct {
	Method *int `json:"method"`
	School *int `json:"school"`
}

func (s *Server) putSettings(c *gin.Context) (any, error) {
	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrInvalidRequest, err)
	}

	calc := s.coord.View().Calculation
	if req.Method != nil {
		calc.Method = *req.Method
	}
	if req.School != nil {
		school, err := prayer.ParseSchool(*req.School)
		if err != nil {
			return nil, err
		}
		calc.School = school
	}
	if err := s.coord.SetCalculation(c.Request.Context(), calc); err != nil {
		return nil, err
	}
	return s.getState(c)
}
