// Package client provides a fluent API for composing amoebot world
// configurations and driving a running amoebot-server over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/swarmnet/amoebotsim/internal/amoebot"
)

// WorldBuilder provides a fluent API for building world configurations.
// Use it to place particles and objects and pick the anchor before
// applying the world to a server or building it locally.
type WorldBuilder struct {
	name             string
	anchor           string
	collisionWorkers int
	particles        []*ParticleBuilder
	objects          []*ObjectBuilder
}

// NewWorld creates a new world builder with the given name.
func NewWorld(name string) *WorldBuilder {
	return &WorldBuilder{
		name:      name,
		particles: make([]*ParticleBuilder, 0),
		objects:   make([]*ObjectBuilder, 0),
	}
}

// Particle adds a particle definition to the world.
func (wb *WorldBuilder) Particle(pb *ParticleBuilder) *WorldBuilder {
	wb.particles = append(wb.particles, pb)
	return wb
}

// Object adds an object definition to the world.
func (wb *WorldBuilder) Object(ob *ObjectBuilder) *WorldBuilder {
	wb.objects = append(wb.objects, ob)
	return wb
}

// Anchor designates the particle whose stationary part fixes the global
// frame of every round. Defaults to the first particle added.
func (wb *WorldBuilder) Anchor(particleID string) *WorldBuilder {
	wb.anchor = particleID
	return wb
}

// CollisionWorkers sets the collision sweep parallelism for the world.
func (wb *WorldBuilder) CollisionWorkers(n int) *WorldBuilder {
	wb.collisionWorkers = n
	return wb
}

// Build converts the builder to a WorldConfig that can be used with
// ApplyWorld or the engine's BuildSystem.
func (wb *WorldBuilder) Build() amoebot.WorldConfig {
	particles := make([]amoebot.ParticleConfig, 0, len(wb.particles))
	for _, pb := range wb.particles {
		particles = append(particles, pb.Build())
	}
	objects := make([]amoebot.ObjectConfig, 0, len(wb.objects))
	for _, ob := range wb.objects {
		objects = append(objects, ob.Build())
	}

	return amoebot.WorldConfig{
		Name:             wb.name,
		Anchor:           wb.anchor,
		CollisionWorkers: wb.collisionWorkers,
		Particles:        particles,
		Objects:          objects,
	}
}

// ParticleBuilder provides a fluent API for building particle definitions:
// placement, compass orientation, and the algorithm the particle runs.
type ParticleBuilder struct {
	id        string
	head      amoebot.Node
	tail      *amoebot.Node
	chirality *int
	offset    int
	algorithm string
}

// NewParticle creates a new particle builder with the given ID. The ID may
// be empty, in which case the engine assigns a random one.
func NewParticle(id string) *ParticleBuilder {
	return &ParticleBuilder{id: id}
}

// At places the particle contracted at the given node.
func (pb *ParticleBuilder) At(x, y int) *ParticleBuilder {
	pb.head = amoebot.Node{X: x, Y: y}
	return pb
}

// ExpandedTo makes the particle start expanded, with its tail at the given
// node. The node must be adjacent to the head set with At.
func (pb *ParticleBuilder) ExpandedTo(x, y int) *ParticleBuilder {
	pb.tail = &amoebot.Node{X: x, Y: y}
	return pb
}

// Clockwise flips the particle's chirality from the default
// counterclockwise orientation.
func (pb *ParticleBuilder) Clockwise() *ParticleBuilder {
	cw := -1
	pb.chirality = &cw
	return pb
}

// CompassOffset rotates the particle's local direction zero to the given
// global direction.
func (pb *ParticleBuilder) CompassOffset(offset int) *ParticleBuilder {
	pb.offset = offset
	return pb
}

// Algorithm names the registered algorithm the particle runs.
func (pb *ParticleBuilder) Algorithm(name string) *ParticleBuilder {
	pb.algorithm = name
	return pb
}

// Build converts the builder to a ParticleConfig.
func (pb *ParticleBuilder) Build() amoebot.ParticleConfig {
	return amoebot.ParticleConfig{
		ID:            pb.id,
		Head:          pb.head,
		Tail:          pb.tail,
		Chirality:     pb.chirality,
		CompassOffset: pb.offset,
		Algorithm:     pb.algorithm,
	}
}

// ObjectBuilder provides a fluent API for building static objects.
type ObjectBuilder struct {
	id       string
	position amoebot.Node
	offsets  []amoebot.Node
}

// NewObject creates a new object builder with the given ID.
func NewObject(id string) *ObjectBuilder {
	return &ObjectBuilder{id: id}
}

// At anchors the object at the given node.
func (ob *ObjectBuilder) At(x, y int) *ObjectBuilder {
	ob.position = amoebot.Node{X: x, Y: y}
	return ob
}

// Offset adds an occupied node relative to the object's anchor. An object
// with no offsets occupies just its anchor node.
func (ob *ObjectBuilder) Offset(x, y int) *ObjectBuilder {
	ob.offsets = append(ob.offsets, amoebot.Node{X: x, Y: y})
	return ob
}

// Build converts the builder to an ObjectConfig.
func (ob *ObjectBuilder) Build() amoebot.ObjectConfig {
	return amoebot.ObjectConfig{
		ID:       ob.id,
		Position: ob.position,
		Offsets:  ob.offsets,
	}
}

// WorldStatus is the server's report on one world.
type WorldStatus struct {
	Round    int    `json:"round"`
	Marker   int    `json:"marker"`
	Scrubbed bool   `json:"scrubbed"`
	Running  bool   `json:"running"`
	Halted   string `json:"halted,omitempty"`
}

// ApplyWorld sends the world configuration to an amoebot-server.
// The baseURL is the server's base URL (e.g., "http://localhost:8080"),
// and worldID is the ID the world is created under.
func ApplyWorld(ctx context.Context, baseURL, worldID string, world *WorldBuilder) error {
	cfg := world.Build()

	jsonData, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal world config: %w", err)
	}

	return postJSON(ctx, baseURL, []string{"world", worldID, "config"}, jsonData, nil)
}

// Step asks the server to run a single round and returns the committed
// round index.
func Step(ctx context.Context, baseURL, worldID string) (int, error) {
	var out map[string]int
	if err := postJSON(ctx, baseURL, []string{"world", worldID, "step"}, nil, &out); err != nil {
		return 0, err
	}
	return out["round"], nil
}

// Start begins auto-running the world with the given interval in
// milliseconds.
func Start(ctx context.Context, baseURL, worldID string, intervalMS int) error {
	u, err := joinPath(baseURL, "world", worldID, "start")
	if err != nil {
		return err
	}
	u += "?interval=" + strconv.Itoa(intervalMS)
	return doRequest(ctx, http.MethodPost, u, nil, nil)
}

// Stop halts an auto-running world.
func Stop(ctx context.Context, baseURL, worldID string) error {
	return postJSON(ctx, baseURL, []string{"world", worldID, "stop"}, nil, nil)
}

// Status fetches the server's status report for the world.
func Status(ctx context.Context, baseURL, worldID string) (WorldStatus, error) {
	var status WorldStatus
	err := getJSON(ctx, baseURL, []string{"world", worldID, "status"}, &status)
	return status, err
}

// Particles fetches the state of every particle at the world's marked
// round.
func Particles(ctx context.Context, baseURL, worldID string) ([]amoebot.ParticleState, error) {
	var states []amoebot.ParticleState
	err := getJSON(ctx, baseURL, []string{"world", worldID, "particles"}, &states)
	return states, err
}

// ParticlesAt fetches the state of every particle as visible at the given
// round, without changing the world's marker.
func ParticlesAt(ctx context.Context, baseURL, worldID string, round int) ([]amoebot.ParticleState, error) {
	u, err := joinPath(baseURL, "world", worldID, "particles")
	if err != nil {
		return nil, err
	}
	u += "?round=" + strconv.Itoa(round)
	var states []amoebot.ParticleState
	err = doRequest(ctx, http.MethodGet, u, nil, &states)
	return states, err
}

// Objects fetches the state of every object at the world's marked round.
func Objects(ctx context.Context, baseURL, worldID string) ([]amoebot.ObjectState, error) {
	var states []amoebot.ObjectState
	err := getJSON(ctx, baseURL, []string{"world", worldID, "objects"}, &states)
	return states, err
}

// timeline applies one timeline operation and returns the updated status.
func timeline(ctx context.Context, baseURL, worldID, op string, round int) (WorldStatus, error) {
	body, err := json.Marshal(map[string]any{"op": op, "round": round})
	if err != nil {
		return WorldStatus{}, err
	}
	var status WorldStatus
	err = postJSON(ctx, baseURL, []string{"world", worldID, "timeline"}, body, &status)
	return status, err
}

// StepBack moves the world marker one round into the past.
func StepBack(ctx context.Context, baseURL, worldID string) (WorldStatus, error) {
	return timeline(ctx, baseURL, worldID, "back", 0)
}

// StepForward moves the world marker one round toward the present.
func StepForward(ctx context.Context, baseURL, worldID string) (WorldStatus, error) {
	return timeline(ctx, baseURL, worldID, "forward", 0)
}

// JumpToRound moves the world marker to the given round.
func JumpToRound(ctx context.Context, baseURL, worldID string, round int) (WorldStatus, error) {
	return timeline(ctx, baseURL, worldID, "jump", round)
}

// ContinueFromMarker makes the marked round the new present, discarding
// the rounds after it.
func ContinueFromMarker(ctx context.Context, baseURL, worldID string) (WorldStatus, error) {
	return timeline(ctx, baseURL, worldID, "continue", 0)
}

// SaveSnapshot asks the server to persist a snapshot of the world.
func SaveSnapshot(ctx context.Context, baseURL, worldID string) error {
	return postJSON(ctx, baseURL, []string{"world", worldID, "snapshot"}, nil, nil)
}

// FetchSnapshot downloads the world's persisted snapshot.
func FetchSnapshot(ctx context.Context, baseURL, worldID string) (amoebot.Snapshot, error) {
	var snapshot amoebot.Snapshot
	err := getJSON(ctx, baseURL, []string{"world", worldID, "snapshot"}, &snapshot)
	return snapshot, err
}

// RestoreWorld uploads a snapshot, creating a new world under worldID with
// the snapshot's full history.
func RestoreWorld(ctx context.Context, baseURL, worldID string, snapshot amoebot.Snapshot) error {
	body, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return postJSON(ctx, baseURL, []string{"world", worldID, "restore"}, body, nil)
}

// DeleteWorld removes the world from the server.
func DeleteWorld(ctx context.Context, baseURL, worldID string) error {
	u, err := joinPath(baseURL, "world", worldID)
	if err != nil {
		return err
	}
	return doRequest(ctx, http.MethodDelete, u, nil, nil)
}

func joinPath(baseURL string, parts ...string) (string, error) {
	u, err := url.JoinPath(baseURL, parts...)
	if err != nil {
		return "", fmt.Errorf("failed to build URL: %w", err)
	}
	return u, nil
}

func postJSON(ctx context.Context, baseURL string, parts []string, body []byte, out any) error {
	u, err := joinPath(baseURL, parts...)
	if err != nil {
		return err
	}
	return doRequest(ctx, http.MethodPost, u, body, out)
}

func getJSON(ctx context.Context, baseURL string, parts []string, out any) error {
	u, err := joinPath(baseURL, parts...)
	if err != nil {
		return err
	}
	return doRequest(ctx, http.MethodGet, u, nil, out)
}

func doRequest(ctx context.Context, method, u string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
