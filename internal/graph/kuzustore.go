//go:build cgo

package graph

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	kuzu "github.com/kuzudb/go-kuzu"
)

// KuzuStore implements Store on an embedded KuzuDB graph database.
// It requires cgo because the go-kuzu driver wraps KuzuDB's C library.
type KuzuStore struct {
	db   *kuzu.Database
	conn *kuzu.Connection
}

// Compile-time check that KuzuStore satisfies Store.
var _ Store = (*KuzuStore)(nil)

// NewKuzuStore creates a KuzuStore backed by an in-memory KuzuDB instance.
func NewKuzuStore() (*KuzuStore, error) {
	cfg := kuzu.DefaultSystemConfig()
	db, err := kuzu.OpenDatabase(":memory:", cfg)
	if err != nil {
		return nil, fmt.Errorf("kuzu: open database: %w", err)
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kuzu: open connection: %w", err)
	}
	return &KuzuStore{db: db, conn: conn}, nil
}

// NewKuzuFileStore creates a KuzuStore backed by an on-disk KuzuDB at
// dbPath. KuzuDB creates the leaf directory itself for new databases.
func NewKuzuFileStore(dbPath string) (*KuzuStore, error) {
	// Ensure parent directory exists (KuzuDB creates the leaf directory).
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("kuzu: create parent directory: %w", err)
	}
	cfg := kuzu.DefaultSystemConfig()
	db, err := kuzu.OpenDatabase(dbPath, cfg)
	if err != nil {
		return nil, fmt.Errorf("kuzu: open file database: %w", err)
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kuzu: open connection: %w", err)
	}
	return &KuzuStore{db: db, conn: conn}, nil
}

// OpenPersistentStore opens an empty on-disk store at dir. An earlier
// analysis stored there is discarded since graphs are rebuilt wholesale.
func OpenPersistentStore(dir string) (Store, error) {
	if err := os.RemoveAll(dir); err != nil {
		return nil, fmt.Errorf("kuzu: reset %s: %w", dir, err)
	}
	return NewKuzuFileStore(dir)
}

// LoadPersistentStore opens a store written by an earlier analysis.
func LoadPersistentStore(dir string) (Store, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("kuzu: %w", err)
	}
	return NewKuzuFileStore(dir)
}

// Close releases the KuzuDB connection and database.
func (s *KuzuStore) Close() error {
	if s.conn != nil {
		s.conn.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
	return nil
}

// ---------- Schema setup ----------

// ddlStatements defines the Cypher DDL executed by InitSchema.
// Order matters: node tables must precede relationship tables.
var ddlStatements = []string{
	`CREATE NODE TABLE IF NOT EXISTS File(
		path STRING,
		language STRING,
		size_bytes INT64,
		directory_depth INT64,
		import_count INT64,
		function_count INT64,
		class_count INT64,
		is_test BOOLEAN,
		is_config BOOLEAN,
		PRIMARY KEY(path)
	)`,
	`CREATE NODE TABLE IF NOT EXISTS Cluster(
		id INT64,
		label STRING,
		cohesion DOUBLE,
		PRIMARY KEY(id)
	)`,
	`CREATE REL TABLE IF NOT EXISTS IMPORTS(FROM File TO File)`,
	`CREATE REL TABLE IF NOT EXISTS BELONGS_TO(FROM File TO Cluster)`,
}

// InitSchema creates all node and relationship tables if they do not exist.
func (s *KuzuStore) InitSchema(_ context.Context) error {
	for _, stmt := range ddlStatements {
		res, err := s.conn.Query(stmt)
		if err != nil {
			return fmt.Errorf("kuzu: init schema: %w", err)
		}
		res.Close()
	}
	return nil
}

// ---------- Write operations ----------

// AddFile inserts a File node.
func (s *KuzuStore) AddFile(_ context.Context, file FileRecord) error {
	return s.exec(
		`CREATE (f:File {
			path: $path,
			language: $lang,
			size_bytes: $size,
			directory_depth: $depth,
			import_count: $imports,
			function_count: $functions,
			class_count: $classes,
			is_test: $test,
			is_config: $config
		})`,
		map[string]any{
			"path":      file.Path,
			"lang":      string(file.Language),
			"size":      file.SizeBytes,
			"depth":     int64(file.DirectoryDepth),
			"imports":   int64(file.ImportCount),
			"functions": int64(file.FunctionCount),
			"classes":   int64(file.ClassCount),
			"test":      file.IsTest,
			"config":    file.IsConfig,
		},
	)
}

// AddEdge inserts an IMPORTS relationship between two existing files.
func (s *KuzuStore) AddEdge(_ context.Context, edge DependencyEdge) error {
	if !edge.Resolved {
		return fmt.Errorf("kuzu: edge %s -> %s is not resolved", edge.Source, edge.Target)
	}
	return s.exec(
		`MATCH (a:File {path: $src}), (b:File {path: $dst})
		 MERGE (a)-[:IMPORTS]->(b)`,
		map[string]any{"src": edge.Source, "dst": edge.Target},
	)
}

// AddCluster inserts a Cluster node and a BELONGS_TO edge per member.
func (s *KuzuStore) AddCluster(_ context.Context, cluster ClusterNode) error {
	err := s.exec(
		"CREATE (c:Cluster {id: $id, label: $label, cohesion: $cohesion})",
		map[string]any{"id": int64(cluster.ID), "label": cluster.Label, "cohesion": cluster.Cohesion},
	)
	if err != nil {
		return err
	}
	for _, member := range cluster.Members {
		err := s.exec(
			`MATCH (f:File {path: $path}), (c:Cluster {id: $id})
			 CREATE (f)-[:BELONGS_TO]->(c)`,
			map[string]any{"path": member, "id": int64(cluster.ID)},
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// ---------- Read operations ----------

const fileColumns = `f.path, f.language, f.size_bytes, f.directory_depth,
	f.import_count, f.function_count, f.class_count, f.is_test, f.is_config`

// GetFile retrieves a single File node by path, or returns nil if not found.
func (s *KuzuStore) GetFile(_ context.Context, path string) (*FileRecord, error) {
	rows, err := s.query(
		"MATCH (f:File {path: $path}) RETURN "+fileColumns,
		map[string]any{"path": path},
	)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rowToFile(rows[0]), nil
}

// QueryFiles returns files whose path contains the query string, sorted by
// path. A limit <= 0 returns all matches.
func (s *KuzuStore) QueryFiles(_ context.Context, queryStr string, limit int) ([]FileRecord, error) {
	cypher := "MATCH (f:File) WHERE lower(f.path) CONTAINS lower($q) RETURN " + fileColumns + " ORDER BY f.path"
	params := map[string]any{"q": queryStr}
	if limit > 0 {
		cypher += " LIMIT $lim"
		params["lim"] = int64(limit)
	}
	rows, err := s.query(cypher, params)
	if err != nil {
		return nil, err
	}
	out := make([]FileRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, *rowToFile(r))
	}
	return out, nil
}

// GetClusters returns all Cluster nodes ordered by id, members sorted.
func (s *KuzuStore) GetClusters(_ context.Context) ([]ClusterNode, error) {
	rows, err := s.query("MATCH (c:Cluster) RETURN c.id, c.label, c.cohesion ORDER BY c.id", nil)
	if err != nil {
		return nil, err
	}
	out := make([]ClusterNode, 0, len(rows))
	for _, r := range rows {
		id := toInt(r[0])
		memberRows, err := s.query(
			"MATCH (f:File)-[:BELONGS_TO]->(c:Cluster {id: $id}) RETURN f.path ORDER BY f.path",
			map[string]any{"id": int64(id)},
		)
		if err != nil {
			return nil, err
		}
		members := make([]string, 0, len(memberRows))
		for _, mr := range memberRows {
			members = append(members, toString(mr[0]))
		}
		out = append(out, ClusterNode{ID: id, Label: toString(r[1]), Members: members, Cohesion: toFloat(r[2])})
	}
	return out, nil
}

// GetAllEdges returns every IMPORTS edge sorted by source then target.
func (s *KuzuStore) GetAllEdges(_ context.Context) ([]DependencyEdge, error) {
	rows, err := s.query(
		"MATCH (a:File)-[:IMPORTS]->(b:File) RETURN a.path, b.path ORDER BY a.path, b.path",
		nil,
	)
	if err != nil {
		return nil, err
	}
	edges := make([]DependencyEdge, 0, len(rows))
	for _, r := range rows {
		edges = append(edges, DependencyEdge{Source: toString(r[0]), Target: toString(r[1]), Resolved: true})
	}
	return edges, nil
}

// ---------- Graph traversal ----------

// GetDependencies walks IMPORTS edges from path breadth-first, up to
// maxDepth hops.
func (s *KuzuStore) GetDependencies(_ context.Context, path string, dir Direction, maxDepth int) ([]DependencyChain, error) {
	return traverse(path, maxDepth, func(id string) ([]string, error) {
		return s.fileNeighbors(id, dir)
	})
}

// fileNeighbors returns immediate file neighbors along IMPORTS edges.
func (s *KuzuStore) fileNeighbors(path string, dir Direction) ([]string, error) {
	var cypher string
	switch dir {
	case DirectionDownstream:
		cypher = "MATCH (a:File {path: $path})-[:IMPORTS]->(b:File) RETURN b.path ORDER BY b.path"
	case DirectionUpstream:
		cypher = "MATCH (a:File)-[:IMPORTS]->(b:File {path: $path}) RETURN a.path ORDER BY a.path"
	default:
		return nil, fmt.Errorf("kuzu: unknown direction: %s", dir)
	}
	rows, err := s.query(cypher, map[string]any{"path": path})
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, toString(r[0]))
	}
	return out, nil
}

// AssessImpact computes the blast radius of the given set of changed files.
func (s *KuzuStore) AssessImpact(_ context.Context, changedFiles []string) (*ImpactResult, error) {
	totalFiles, err := s.countTable("File")
	if err != nil {
		return nil, err
	}
	return impact(changedFiles, totalFiles, func(id string) ([]string, error) {
		return s.fileNeighbors(id, DirectionUpstream)
	})
}

// ---------- Stats ----------

// Stats returns file, edge and cluster counts.
func (s *KuzuStore) Stats(_ context.Context) (*GraphStats, error) {
	files, err := s.countTable("File")
	if err != nil {
		return nil, err
	}
	clusters, err := s.countTable("Cluster")
	if err != nil {
		return nil, err
	}
	rows, err := s.query("MATCH ()-[r:IMPORTS]->() RETURN count(r)", nil)
	if err != nil {
		return nil, err
	}
	edges := 0
	if len(rows) > 0 && len(rows[0]) > 0 {
		edges = toInt(rows[0][0])
	}
	return &GraphStats{FileCount: files, EdgeCount: edges, ClusterCount: clusters}, nil
}

// ---------- Internal helpers ----------

// exec runs a parameterized Cypher statement that produces no result rows.
func (s *KuzuStore) exec(cypher string, params map[string]any) error {
	stmt, err := s.conn.Prepare(cypher)
	if err != nil {
		return fmt.Errorf("kuzu: prepare: %w", err)
	}
	defer stmt.Close()

	res, err := s.conn.Execute(stmt, params)
	if err != nil {
		return fmt.Errorf("kuzu: execute: %w", err)
	}
	res.Close()
	return nil
}

// query runs a parameterized Cypher statement and collects all result rows.
// Each row is a []any slice with values in column order.
func (s *KuzuStore) query(cypher string, params map[string]any) ([][]any, error) {
	var res *kuzu.QueryResult
	var err error

	if len(params) == 0 {
		res, err = s.conn.Query(cypher)
	} else {
		var stmt *kuzu.PreparedStatement
		stmt, err = s.conn.Prepare(cypher)
		if err != nil {
			return nil, fmt.Errorf("kuzu: prepare: %w", err)
		}
		defer stmt.Close()
		res, err = s.conn.Execute(stmt, params)
	}
	if err != nil {
		return nil, fmt.Errorf("kuzu: query: %w", err)
	}
	defer res.Close()

	var rows [][]any
	for res.HasNext() {
		tuple, err := res.Next()
		if err != nil {
			return nil, fmt.Errorf("kuzu: next: %w", err)
		}
		vals, err := tuple.GetAsSlice()
		if err != nil {
			return nil, fmt.Errorf("kuzu: row values: %w", err)
		}
		rows = append(rows, vals)
	}
	return rows, nil
}

// countTable returns the number of rows in a node table.
func (s *KuzuStore) countTable(table string) (int, error) {
	// Table name is a fixed internal constant, not user input.
	cypher := fmt.Sprintf("MATCH (n:%s) RETURN count(n)", table)
	rows, err := s.query(cypher, nil)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return 0, nil
	}
	return toInt(rows[0][0]), nil
}

// rowToFile converts a fileColumns result row into a FileRecord.
func rowToFile(r []any) *FileRecord {
	return &FileRecord{
		Path:           toString(r[0]),
		Language:       Language(toString(r[1])),
		SizeBytes:      int64(toInt(r[2])),
		DirectoryDepth: toInt(r[3]),
		ImportCount:    toInt(r[4]),
		FunctionCount:  toInt(r[5]),
		ClassCount:     toInt(r[6]),
		IsTest:         toBool(r[7]),
		IsConfig:       toBool(r[8]),
	}
}

// ---------- Type coercion helpers ----------
// KuzuDB returns typed Go values (int64, float64, bool, string).
// These helpers safely coerce any -> concrete type.

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}

func toInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case int32:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

func toBool(v any) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return false
}
