package catalogs

import (
	"bytes"
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

type Catalogs struct {
	Creatures CreatureCatalog
	Paths     PathCatalog
}

type CreatureCatalog struct {
	ByEntry map[uint32]CreatureDef
	Digest  string
}

type CreatureDef struct {
	Entry uint32 `json:"entry"`
	Name  string `json:"name"`
	// DefaultMotion is "idle", "random" or "waypoint". Empty means idle.
	DefaultMotion  string  `json:"default_motion,omitempty"`
	WanderDistance float32 `json:"wander_distance,omitempty"`
	PathID         uint32  `json:"path_id,omitempty"`
	Speed          float32 `json:"speed,omitempty"`
}

type PathCatalog struct {
	Waypoints map[uint32][]PathNode
	Taxi      map[uint32][]PathNode
	Digest    string
}

type PathNode struct {
	Pos     [3]float32 `json:"pos"`
	DelayMs uint32     `json:"delay_ms,omitempty"`
}

func (n PathNode) Vec() mgl32.Vec3 { return mgl32.Vec3(n.Pos) }

type pathDef struct {
	ID    uint32     `json:"id"`
	Nodes []PathNode `json:"nodes"`
}

type pathsFile struct {
	Waypoints []pathDef `json:"waypoints"`
	Taxi      []pathDef `json:"taxi"`
}

// Creature returns the template for entry.
func (c *Catalogs) Creature(entry uint32) (CreatureDef, bool) {
	if c == nil {
		return CreatureDef{}, false
	}
	d, ok := c.Creatures.ByEntry[entry]
	return d, ok
}

func Load(configDir string) (*Catalogs, error) {
	var c Catalogs

	if err := loadCreatures(filepath.Join(configDir, "creatures.json"), &c.Creatures); err != nil {
		return nil, err
	}
	if err := loadPaths(filepath.Join(configDir, "paths.json"), &c.Paths); err != nil {
		return nil, err
	}
	for _, d := range c.Creatures.ByEntry {
		if d.DefaultMotion != "waypoint" {
			continue
		}
		if _, ok := c.Paths.Waypoints[d.PathID]; !ok {
			return nil, fmt.Errorf("creatures.json: entry %d: unknown path_id %d", d.Entry, d.PathID)
		}
	}
	return &c, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func compileSchema(name string) (*jsonschema.Schema, error) {
	raw, err := schemaFS.ReadFile("schemas/" + name)
	if err != nil {
		return nil, err
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(name, bytes.NewReader(raw)); err != nil {
		return nil, err
	}
	return c.Compile(name)
}

// validate checks raw against the embedded schema before it is decoded into
// Go types, so errors point at the offending JSON path.
func validate(schemaName, fileName string, raw []byte) error {
	s, err := compileSchema(schemaName)
	if err != nil {
		return fmt.Errorf("%s: schema: %w", fileName, err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("%s: %w", fileName, err)
	}
	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("%s: %w", fileName, err)
	}
	return nil
}

func loadCreatures(path string, out *CreatureCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := validate("creatures.schema.json", "creatures.json", raw); err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []CreatureDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("creatures.json: %w", err)
	}
	out.ByEntry = make(map[uint32]CreatureDef, len(defs))
	for _, d := range defs {
		if _, dup := out.ByEntry[d.Entry]; dup {
			return fmt.Errorf("creatures.json: duplicate entry %d", d.Entry)
		}
		out.ByEntry[d.Entry] = d
	}
	return nil
}

func loadPaths(path string, out *PathCatalog) error {
	out.Waypoints = map[uint32][]PathNode{}
	out.Taxi = map[uint32][]PathNode{}

	raw, err := os.ReadFile(path)
	if err != nil {
		// No stored paths is a valid setup.
		if os.IsNotExist(err) {
			out.Digest = sha256Hex(nil)
			return nil
		}
		return err
	}
	if err := validate("paths.schema.json", "paths.json", raw); err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var f pathsFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("paths.json: %w", err)
	}
	if err := indexPaths("waypoints", f.Waypoints, out.Waypoints); err != nil {
		return err
	}
	return indexPaths("taxi", f.Taxi, out.Taxi)
}

func indexPaths(kind string, defs []pathDef, into map[uint32][]PathNode) error {
	for _, p := range defs {
		if _, dup := into[p.ID]; dup {
			return fmt.Errorf("paths.json: duplicate %s path %d", kind, p.ID)
		}
		into[p.ID] = p.Nodes
	}
	return nil
}

// SortedPathIDs returns the keys of m in ascending order.
func SortedPathIDs(m map[uint32][]PathNode) []uint32 {
	ids := make([]uint32, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
