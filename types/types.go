package types

// ============================================================================
// SIGNAL-BUS ENVELOPES - FIXED-LAYOUT COMMAND/RESULT STRUCTURES
// ============================================================================

// Priority selects the command lane. Higher values always drain first under
// the bus's strict-priority pop order.
type Priority uint8

const (
	PriorityNormal Priority = iota
	PriorityUrgent
	PriorityCritical
)

// CommandKind tags the active payload variant of a Command. The set is
// closed for the core but deliberately open for extension: new kinds append
// to the enum and piggyback on the existing payload fields or add their own.
type CommandKind uint8

const (
	KindNone CommandKind = iota
	KindPing
	KindDijkstra
)

// PingArgs is the payload of a liveness probe command.
type PingArgs struct {
	Seq         uint64 // producer-chosen probe sequence
	TimestampNs int64  // producer clock at dispatch, for RTT accounting
}

// DijkstraArgs is the payload of a bounded shortest-path query command.
type DijkstraArgs struct {
	Src     uint32 // source vertex id
	Dst     uint32 // destination vertex id
	MaxHops uint16 // traversal bound; 0 = unbounded
}

// Command is the message envelope carried by the priority lanes.
//
// Layout notes: a flat kind-tagged union-by-fields rather than an interface
// sum type, so a ring slot holds the whole envelope by value and dispatch
// never allocates. Only the payload struct named by Kind is meaningful;
// the other stays zero. Immutable once constructed; ownership moves to the
// consumer on pop.
type Command struct {
	ID       uint64 // monotonic; 0 = unassigned, bus stamps on dispatch
	Kind     CommandKind
	Priority Priority
	_        [6]byte // pad tag bytes to an 8-byte boundary
	Ping     PingArgs
	Dijkstra DijkstraArgs
}

// Ping constructs a Normal-priority liveness probe.
func Ping(seq uint64, timestampNs int64) Command {
	return Command{
		Kind: KindPing,
		Ping: PingArgs{Seq: seq, TimestampNs: timestampNs},
	}
}

// Dijkstra constructs a Normal-priority bounded shortest-path query.
func Dijkstra(src, dst uint32, maxHops uint16) Command {
	return Command{
		Kind:     KindDijkstra,
		Dijkstra: DijkstraArgs{Src: src, Dst: dst, MaxHops: maxHops},
	}
}

// Urgent returns a copy of c tagged for the urgent lane.
func (c Command) Urgent() Command {
	c.Priority = PriorityUrgent
	return c
}

// Critical returns a copy of c tagged for the critical lane.
func (c Command) Critical() Command {
	c.Priority = PriorityCritical
	return c
}

// ============================================================================
// RESULT ENVELOPE
// ============================================================================

// ResultKind tags the active payload variant of an AtlasResult.
type ResultKind uint8

const (
	ResultNone ResultKind = iota
	ResultPong
	ResultMatroidRank
	ResultError
)

// Status is the coarse outcome of the processing a result correlates to.
type Status uint8

const (
	StatusOK Status = iota
	StatusErr
)

// AtlasResult is the response envelope, correlated to a Command by id.
// Created by the consumer after processing; read by whichever thread later
// pops the result lane. The only heap reference is the error message, which
// exists off the hot path by construction.
type AtlasResult struct {
	CorrelatesTo uint64 // matches Command.ID
	Kind         ResultKind
	Status       Status
	_            [2]byte
	Rank         uint32 // MatroidRank payload
	Message      string // Error payload
}

// OK constructs a successful result of the given kind.
func OK(kind ResultKind, correlatesTo uint64) AtlasResult {
	return AtlasResult{CorrelatesTo: correlatesTo, Kind: kind, Status: StatusOK}
}

// MatroidRank constructs a successful rank result.
func MatroidRank(rank uint32, correlatesTo uint64) AtlasResult {
	return AtlasResult{
		CorrelatesTo: correlatesTo,
		Kind:         ResultMatroidRank,
		Status:       StatusOK,
		Rank:         rank,
	}
}

// Err constructs a failed result carrying a consumer-side error message.
func Err(message string, correlatesTo uint64) AtlasResult {
	return AtlasResult{
		CorrelatesTo: correlatesTo,
		Kind:         ResultError,
		Status:       StatusErr,
		Message:      message,
	}
}
