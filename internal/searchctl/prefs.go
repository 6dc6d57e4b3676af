package searchctl

import (
	"encoding/json"
	"strings"
)

// Preference keys persisted through the KV store.
const (
	prefKeyHistory  = "history"
	prefKeyUnits    = "units"
	prefKeyGeoAllow = "geolocation_consent"
)

// Temperature unit preferences.
const (
	UnitsCelsius    = "celsius"
	UnitsFahrenheit = "fahrenheit"
)

// KV is the persistence boundary for user preferences and search history.
// Implementations are expected to be small local stores; Get returns "" for
// missing keys.
type KV interface {
	Get(key string) string
	Set(key, value string)
}

// History returns the recent-search list, most recent first. Missing or
// corrupt stored data yields an empty list.
func (c *Controller) History() []string {
	if c.prefs == nil {
		return nil
	}
	raw := c.prefs.Get(prefKeyHistory)
	if raw == "" {
		return nil
	}
	var history []string
	if err := json.Unmarshal([]byte(raw), &history); err != nil {
		return nil
	}
	return history
}

// pushHistory moves place to the front of the recent-search list, dropping
// any earlier occurrence and trimming to the configured limit.
func (c *Controller) pushHistory(place string) {
	if c.prefs == nil || strings.TrimSpace(place) == "" {
		return
	}

	history := c.History()
	updated := make([]string, 0, len(history)+1)
	updated = append(updated, place)
	for _, h := range history {
		if strings.EqualFold(h, place) {
			continue
		}
		updated = append(updated, h)
	}
	if len(updated) > c.historyLimit {
		updated = updated[:c.historyLimit]
	}

	raw, err := json.Marshal(updated)
	if err != nil {
		return
	}
	c.prefs.Set(prefKeyHistory, string(raw))
}

// Units returns the preferred temperature unit, defaulting to celsius.
func (c *Controller) Units() string {
	if c.prefs != nil {
		if u := c.prefs.Get(prefKeyUnits); u == UnitsFahrenheit {
			return UnitsFahrenheit
		}
	}
	return UnitsCelsius
}

// SetUnits stores the preferred temperature unit. Unknown values are ignored.
func (c *Controller) SetUnits(units string) {
	if c.prefs == nil {
		return
	}
	if units != UnitsCelsius && units != UnitsFahrenheit {
		return
	}
	c.prefs.Set(prefKeyUnits, units)
}

// GeolocationAllowed reports whether the user granted geolocation consent.
// Absence of a stored answer counts as not granted.
func (c *Controller) GeolocationAllowed() bool {
	return c.prefs != nil && c.prefs.Get(prefKeyGeoAllow) == "true"
}

// SetGeolocationAllowed records the user's geolocation consent decision.
func (c *Controller) SetGeolocationAllowed(allowed bool) {
	if c.prefs == nil {
		return
	}
	if allowed {
		c.prefs.Set(prefKeyGeoAllow, "true")
	} else {
		c.prefs.Set(prefKeyGeoAllow, "false")
	}
}
