// ============================================================================
// STARTUP CONFIGURATION - PROFILE STORE & JSON SOURCE
// ============================================================================
//
// Loads the gate tuning and the crystal set at process start. Two sources,
// identical validation:
//
//   - a SQLite profile store (the operational path: profiles survive across
//     runs and are edited with ordinary tooling)
//   - a JSON file (the portable path: fixtures, one-off runs)
//
// Configuration is static for the bus's lifetime; hot-reload is out of
// scope. Malformed input is rejected with an error, never clamped.

package config

import (
	"database/sql"
	"errors"
	"os"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sugawarayuuta/sonnet"

	"atlas/constants"
	"atlas/plasma"
	"atlas/resonance"
)

// ErrUnknownFamily reports a crystal row naming no known family.
var ErrUnknownFamily = errors.New("config: unknown crystal family")

// ErrUnknownPolicy reports an unrecognized voting policy name.
var ErrUnknownPolicy = errors.New("config: unknown voting policy")

// ErrBadProfile reports band geometry outside the digest axis.
var ErrBadProfile = errors.New("config: malformed crystal profile")

// ErrNoThyristor reports a profile store without a thyristor row.
var ErrNoThyristor = errors.New("config: thyristor tuning missing")

// CrystalSpec is one configured crystal.
type CrystalSpec struct {
	Family    string  `json:"family"`
	Center    float64 `json:"center"`
	Tolerance float64 `json:"tolerance"`
	Drift     float64 `json:"drift"`
	Weight    float64 `json:"weight"`
}

// GateSpec is the thyristor tuning as configured.
type GateSpec struct {
	GateThresh     float32 `json:"gate_thresh"`
	HoldingThresh  float32 `json:"holding_thresh"`
	PerfectThresh  float32 `json:"perfect_thresh"`
	EntropyDrought uint32  `json:"entropy_drought"`
}

// Config is the complete startup configuration.
type Config struct {
	Gate          GateSpec      `json:"gate"`
	Policy        string        `json:"policy"` // unanimous | majority | weighted-average
	PassThreshold float32       `json:"pass_threshold"`
	Crystals      []CrystalSpec `json:"crystals"`
}

// Thyristor converts the gate spec to the runtime tuning.
func (c *Config) Thyristor() plasma.ThyristorConfig {
	return plasma.ThyristorConfig{
		GateThresh:     c.Gate.GateThresh,
		HoldingThresh:  c.Gate.HoldingThresh,
		PerfectThresh:  c.Gate.PerfectThresh,
		EntropyDrought: c.Gate.EntropyDrought,
	}
}

// ParseFamily resolves a configured family name.
func ParseFamily(name string) (resonance.CrystalFamily, error) {
	switch name {
	case "orbital":
		return resonance.Orbital, nil
	case "ground-station":
		return resonance.GroundStation, nil
	case "tar-pit":
		return resonance.TarPit, nil
	case "silent":
		return resonance.Silent, nil
	case "adaptive":
		return resonance.Adaptive, nil
	}
	return 0, ErrUnknownFamily
}

// ParsePolicy resolves a configured voting policy name.
func ParsePolicy(name string) (resonance.VotingPolicy, error) {
	switch name {
	case "unanimous":
		return resonance.Unanimous, nil
	case "majority":
		return resonance.Majority, nil
	case "weighted-average":
		return resonance.WeightedAverage, nil
	}
	return 0, ErrUnknownPolicy
}

// Validate rejects malformed tuning and profiles at load time.
func (c *Config) Validate() error {
	if err := c.Thyristor().Validate(); err != nil {
		return err
	}
	if _, err := ParsePolicy(c.Policy); err != nil {
		return err
	}
	if len(c.Crystals) > constants.MaxCrystals {
		return resonance.ErrCapacityExceeded
	}
	for _, cs := range c.Crystals {
		if _, err := ParseFamily(cs.Family); err != nil {
			return err
		}
		if cs.Center < 0 || cs.Center >= 1 || cs.Tolerance <= 0 || cs.Tolerance > 1 ||
			cs.Drift < 0 || cs.Drift > 1 || cs.Weight < 0 {
			return ErrBadProfile
		}
	}
	return nil
}

// BuildPolycrystal assembles the configured crystal set under the
// configured policy. A weight of zero falls back to one.
func (c *Config) BuildPolycrystal() (resonance.Polycrystal, error) {
	policy, err := ParsePolicy(c.Policy)
	if err != nil {
		return resonance.Polycrystal{}, err
	}
	p := resonance.NewPolycrystal(policy)
	for _, cs := range c.Crystals {
		family, err := ParseFamily(cs.Family)
		if err != nil {
			return resonance.Polycrystal{}, err
		}
		w := cs.Weight
		if w == 0 {
			w = 1
		}
		crystal := resonance.Crystal{
			Family: family,
			Profile: resonance.ResonanceProfile{
				Center:    cs.Center,
				Tolerance: cs.Tolerance,
				Drift:     cs.Drift,
				Weight:    w,
			},
		}
		if err := p.Add(crystal); err != nil {
			return resonance.Polycrystal{}, err
		}
	}
	return p, nil
}

// ============================================================================
// JSON SOURCE
// ============================================================================

// LoadJSON reads and validates a configuration file.
func LoadJSON(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := sonnet.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Dump serializes a configuration for operator inspection.
func Dump(c *Config) ([]byte, error) {
	return sonnet.Marshal(c)
}

// ============================================================================
// SQLITE PROFILE STORE
// ============================================================================

// OpenStore opens the SQLite profile store. Caller closes after loading;
// nothing holds the handle at runtime.
func OpenStore(path string) (*sql.DB, error) {
	return sql.Open("sqlite3", path)
}

// InitStore creates the profile-store schema on an empty database.
func InitStore(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS thyristor (
			id              INTEGER PRIMARY KEY CHECK (id = 1),
			gate_thresh     REAL NOT NULL,
			holding_thresh  REAL NOT NULL,
			perfect_thresh  REAL NOT NULL,
			entropy_drought INTEGER NOT NULL,
			policy          TEXT NOT NULL,
			pass_threshold  REAL NOT NULL
		);
		CREATE TABLE IF NOT EXISTS crystals (
			id        INTEGER PRIMARY KEY,
			family    TEXT NOT NULL,
			center    REAL NOT NULL,
			tolerance REAL NOT NULL,
			drift     REAL NOT NULL DEFAULT 0,
			weight    REAL NOT NULL DEFAULT 1
		);`)
	return err
}

// LoadStore reads and validates the full configuration from the profile
// store: the singleton thyristor row plus every crystal in id order. The
// loader follows the count-then-select discipline so the crystal slice is
// allocated exactly once at its final size.
func LoadStore(db *sql.DB) (*Config, error) {
	var c Config
	err := db.QueryRow(`
		SELECT gate_thresh, holding_thresh, perfect_thresh, entropy_drought,
		       policy, pass_threshold
		FROM thyristor WHERE id = 1`).Scan(
		&c.Gate.GateThresh,
		&c.Gate.HoldingThresh,
		&c.Gate.PerfectThresh,
		&c.Gate.EntropyDrought,
		&c.Policy,
		&c.PassThreshold,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNoThyristor
	}
	if err != nil {
		return nil, err
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM crystals`).Scan(&count); err != nil {
		return nil, err
	}
	c.Crystals = make([]CrystalSpec, 0, count)

	rows, err := db.Query(`
		SELECT family, center, tolerance, drift, weight
		FROM crystals ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var cs CrystalSpec
		if err := rows.Scan(&cs.Family, &cs.Center, &cs.Tolerance, &cs.Drift, &cs.Weight); err != nil {
			return nil, err
		}
		c.Crystals = append(c.Crystals, cs)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Default returns the compiled-in configuration used when no source is
// supplied: default gate tuning and one wide orbital crystal under
// weighted-average voting.
func Default() *Config {
	return &Config{
		Gate: GateSpec{
			GateThresh:     constants.DefaultGateThresh,
			HoldingThresh:  constants.DefaultHoldingThresh,
			PerfectThresh:  constants.DefaultPerfectThresh,
			EntropyDrought: constants.DefaultEntropyDrought,
		},
		Policy:        "weighted-average",
		PassThreshold: constants.DefaultGateThresh,
		Crystals: []CrystalSpec{
			{Family: "orbital", Center: constants.OrbitalCenter, Tolerance: constants.OrbitalTolerance, Weight: 1},
		},
	}
}
