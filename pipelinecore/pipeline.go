package pipelinecore

import (
	"sync"

	"github.com/google/uuid"
	"github.com/kbukum/flowbatch/pconfig"
	"github.com/kbukum/flowbatch/perrors"
	"github.com/kbukum/flowbatch/sideinput"
)

// Pipeline owns an append-only operator graph, a side-input registry, and
// the configuration governing its executions, per §3's Pipeline data
// model entry. It is created empty, grown only by transformation calls,
// and consumed read-only by any number of independent executor runs.
type Pipeline struct {
	id     string
	mu     sync.Mutex
	nodes  []*Node
	locked bool // frozen for the duration of an in-progress run

	Config    pconfig.PipelineConfig
	SideInput *sideinput.Registry
}

// New creates an empty Pipeline governed by cfg. cfg.ApplyDefaults should
// be called by the caller beforehand if zero-value defaults are desired;
// New does not mutate cfg.
func New(cfg pconfig.PipelineConfig) *Pipeline {
	return &Pipeline{
		id:        uuid.NewString(),
		Config:    cfg,
		SideInput: sideinput.NewRegistry(),
	}
}

// ID returns the pipeline's unique identifier, used in error messages,
// metrics, and checkpoint manifests.
func (p *Pipeline) ID() string { return p.id }

// NodeCount returns the number of operator nodes registered so far.
func (p *Pipeline) NodeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.nodes)
}

// addNode appends n to the arena, rejecting the append if the graph is
// frozen by an in-progress run (§5: "the operator graph is frozen at run
// start; any concurrent modification during a run is PipelineLocked").
func (p *Pipeline) addNode(n *Node) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.locked {
		return 0, perrors.PipelineLocked()
	}
	n.ID = len(p.nodes)
	p.nodes = append(p.nodes, n)
	return n.ID, nil
}

// Lock freezes the graph for the duration of a run. Called by the exec
// package at the start of every CollectSequential/CollectParallel/
// RunToSink call.
func (p *Pipeline) Lock() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.locked = true
	p.SideInput.Lock()
}

// Unlock releases the freeze once a run completes (successfully or not),
// permitting further transformation calls or additional runs against the
// same pipeline — multiple independent runs over one handle are
// explicitly permitted (§9 open question (c)).
func (p *Pipeline) Unlock() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.locked = false
}

// Nodes returns a snapshot of the arena for the exec package to walk. The
// returned slice must not be mutated.
func (p *Pipeline) Nodes() []*Node {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*Node, len(p.nodes))
	copy(out, p.nodes)
	return out
}

// NodeByID retrieves a single node record, or nil if id is out of range.
func (p *Pipeline) NodeByID(id int) *Node {
	p.mu.Lock()
	defer p.mu.Unlock()
	if id < 0 || id >= len(p.nodes) {
		return nil
	}
	return p.nodes[id]
}
