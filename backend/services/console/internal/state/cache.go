package state

import (
	"sync"

	"colonnine/backend/services/console/internal/models"
)

// Snapshot is one consistent read of both collections.
type Snapshot struct {
	Version  uint64
	Stations []models.Station
	Vehicles []models.Vehicle
}

// Cache keeps the last successfully fetched collections. Every update is a full replace.
type Cache struct {
	mu       sync.RWMutex
	stations []models.Station
	vehicles []models.Vehicle
	version  uint64
}

// ReplaceStations swaps the station list for a copy of list.
func (c *Cache) ReplaceStations(list []models.Station) {
	cp := make([]models.Station, len(list))
	copy(cp, list)

	c.mu.Lock()
	c.stations = cp
	c.version++
	c.mu.Unlock()
}

// ReplaceVehicles swaps the vehicle list for a copy of list. nil clears it.
func (c *Cache) ReplaceVehicles(list []models.Vehicle) {
	cp := make([]models.Vehicle, len(list))
	copy(cp, list)

	c.mu.Lock()
	c.vehicles = cp
	c.version++
	c.mu.Unlock()
}

// Stations returns a copy of the cached stations.
func (c *Cache) Stations() []models.Station {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Station, len(c.stations))
	copy(out, c.stations)
	return out
}

// Vehicles returns a copy of the cached vehicles.
func (c *Cache) Vehicles() []models.Vehicle {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Vehicle, len(c.vehicles))
	copy(out, c.vehicles)
	return out
}

// Snapshot reads both lists under one lock.
func (c *Cache) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap := Snapshot{
		Version:  c.version,
		Stations: make([]models.Station, len(c.stations)),
		Vehicles: make([]models.Vehicle, len(c.vehicles)),
	}
	copy(snap.Stations, c.stations)
	copy(snap.Vehicles, c.vehicles)
	return snap
}
