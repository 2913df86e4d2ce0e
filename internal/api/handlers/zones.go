package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jroosing/triedns/internal/api/models"
	"github.com/jroosing/triedns/internal/dns"
	"github.com/jroosing/triedns/internal/zone"
)

// GetZone godoc
// @Summary List zone records
// @Description Returns every record held by the authoritative store, ordered by name
// @Tags zone
// @Produce json
// @Success 200 {object} models.ZoneResponse
// @Failure 500 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /zone [get]
func (h *Handler) GetZone(c *gin.Context) {
	resp := models.ZoneResponse{Source: h.zoneSource(), Records: []models.ZoneRecord{}}

	if h.deps.DB != nil {
		version, err := h.deps.DB.GetVersion()
		if err != nil {
			h.logger.Error("failed to read zone version", "err", err)
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to read zone version"})
			return
		}
		resp.Version = version
	}

	if h.deps.Store != nil {
		ttl := h.zoneTTL()
		h.deps.Store.Walk(func(name dns.Name, rec zone.Record) bool {
			resp.Records = append(resp.Records, toModel(name, rec, ttl))
			return true
		})
	}
	resp.Count = len(resp.Records)

	c.JSON(http.StatusOK, resp)
}

// GetZoneTree godoc
// @Summary Zone tree
// @Description Returns the store rendered as an indented label tree
// @Tags zone
// @Produce plain
// @Success 200 {string} string
// @Security ApiKeyAuth
// @Router /zone/tree [get]
func (h *Handler) GetZoneTree(c *gin.Context) {
	store := h.deps.Store
	if store == nil {
		store = zone.NewStore()
	}
	c.String(http.StatusOK, store.String())
}

// LookupZone godoc
// @Summary Look up a name
// @Description Performs one store lookup for name and type, including wildcard matching
// @Tags zone
// @Produce json
// @Param name query string true "Domain name"
// @Param type query string false "Record type (A, CNAME, TXT, ANY); defaults to A"
// @Success 200 {object} models.ZoneLookupResponse
// @Failure 400 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /zone/lookup [get]
func (h *Handler) LookupZone(c *gin.Context) {
	rawName := c.Query("name")
	if rawName == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "name is required"})
		return
	}
	name, err := dns.ParseName(rawName)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	qtype := dns.TypeA
	if rawType := c.Query("type"); rawType != "" {
		qtype, err = dns.QTypeFromString(rawType)
		if err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
			return
		}
	}

	resp := models.ZoneLookupResponse{Name: name.String(), Type: qtype.String()}
	if h.deps.Store != nil {
		if rec, ok := h.deps.Store.Lookup(name, qtype); ok {
			m := toModel(name, rec, h.zoneTTL())
			resp.Found = true
			resp.Record = &m
		}
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) zoneSource() string {
	switch {
	case h.cfg == nil:
		return "none"
	case h.cfg.Zone.Database != "":
		return "database"
	case h.cfg.Zone.File != "":
		return "file"
	}
	return "none"
}

func toModel(name dns.Name, rec zone.Record, ttl int32) models.ZoneRecord {
	return models.ZoneRecord{
		Name:  name.String(),
		TTL:   ttl,
		Type:  rec.QType().String(),
		Value: rec.Data(),
	}
}
