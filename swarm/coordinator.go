// Package swarm implements the coordinator: task intake, decomposition,
// scheduling, dispatch, monitoring, result handling, and load-
// balancing/auto-scaling, sharing one task registry and DAG across
// seven concurrent loops (spec §4.9). Grounded on gomind's
// orchestration/orchestrator.go for the lock-protected-shared-store
// loop shape and orchestration/workflow_dag.go for DAG mechanics.
package swarm

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/swarmmind/swarmmind/agents"
	"github.com/swarmmind/swarmmind/config"
	"github.com/swarmmind/swarmmind/core"
	"github.com/swarmmind/swarmmind/runtime"
)

// Metrics is the live system-metrics snapshot (SPEC_FULL.md §9,
// supplemented from the original's get_system_metrics), also embedded
// verbatim into every Checkpoint.
type Metrics struct {
	TotalTasks       int64         `json:"total_tasks"`
	CompletedTasks   int64         `json:"completed_tasks"`
	FailedTasks      int64         `json:"failed_tasks"`
	AvgTaskTime      time.Duration `json:"avg_task_time"`
	ActiveAgents     int           `json:"active_agents"`
	RecoveryCount    int64         `json:"recovery_count"`
	AutoScaleEvents  int64         `json:"auto_scale_events"`
}

// HostMetricsProvider supplies the host CPU figure the auto-scale-down
// check needs (spec §4.9); environment.Environment satisfies this via
// CurrentCPUPercent.
type HostMetricsProvider interface {
	CurrentCPUPercent() float64
}

// AgentFactory builds a fresh agent + behavior for a given role,
// used by auto-scale-up (spec §4.9: "spawn a new worker with a
// default role"). The caller (typically cmd/swarmctl) owns how a role
// maps to a concrete agents.Behavior and its LLM/tool wiring.
type AgentFactory func(role string) (*core.Agent, agents.Behavior)

type dispatchRequest struct {
	task    *core.Task
	agentID string
}

type requestItem struct {
	text  string
	reply chan string
}

// Coordinator is the single shared store backing the seven concurrent
// loops (spec §4.9).
type Coordinator struct {
	mu          sync.RWMutex
	tasks       map[string]*core.Task
	dag         *DAG
	queue       *taskQueue
	assignments map[string]string // taskID -> agentID
	activeLoad  map[string]int    // agentID -> in-flight task count
	validation  map[string]*runningAvg
	finalized   map[string]bool
	dispatchedAt map[string]time.Time
	taskTimes   []time.Duration

	rt         *runtime.Runtime
	cognitive  *agents.CognitiveBehavior
	coordAgent *core.Agent
	host       HostMetricsProvider
	spawn      AgentFactory
	store      Store
	logger     core.Logger

	cfg       config.SwarmConfig
	agentsCfg config.AgentPoolConfig
	resCfg    config.ResourceConfig
	reportDir string

	requestCh       chan requestItem
	decompositionCh chan *core.Task
	dispatchCh      chan dispatchRequest

	shuttingDown int32
	stopCh       chan struct{}
	wg           sync.WaitGroup

	shutdownMu        sync.Mutex
	shutdownCallbacks []func()

	totalTasks, completedTasks, failedTasks int64
	recoveryCount, autoScaleEvents          int64
}

type runningAvg struct {
	sum   float64
	count int
}

func (r *runningAvg) add(v float64) {
	r.sum += v
	r.count++
}

func (r *runningAvg) mean() float64 {
	if r.count == 0 {
		return 0
	}
	return r.sum / float64(r.count)
}

// New builds a Coordinator. cognitiveAgent/cognitive are used to drive
// decomposition and validation against the LLM adapter; store may be
// nil to disable checkpoint persistence entirely.
func New(rt *runtime.Runtime, cognitiveAgent *core.Agent, cognitive *agents.CognitiveBehavior, cfg config.SwarmConfig, agentsCfg config.AgentPoolConfig, resCfg config.ResourceConfig, store Store, host HostMetricsProvider, spawn AgentFactory, logger core.Logger) *Coordinator {
	if logger == nil {
		logger = core.NoOpLogger{}
	}
	return &Coordinator{
		tasks:        make(map[string]*core.Task),
		dag:          NewDAG(),
		queue:        newTaskQueue(),
		assignments:  make(map[string]string),
		activeLoad:   make(map[string]int),
		validation:   make(map[string]*runningAvg),
		finalized:    make(map[string]bool),
		dispatchedAt: make(map[string]time.Time),
		rt:           rt,
		cognitive:    cognitive,
		coordAgent:   cognitiveAgent,
		host:         host,
		spawn:        spawn,
		store:        store,
		logger:       logger,
		cfg:          cfg,
		agentsCfg:    agentsCfg,
		resCfg:       resCfg,
		reportDir:    cfg.CheckpointDir,
		requestCh:    make(chan requestItem, 64),
		decompositionCh: make(chan *core.Task, 64),
		dispatchCh:   make(chan dispatchRequest, 64),
		stopCh:       make(chan struct{}),
	}
}

// ProcessRequest creates a root task for text and returns its id once
// the intake loop has registered it (spec §4.9: "process_request(text)
// -> task_id creates a root task in state pending, marks it for
// decomposition, enqueues it").
func (c *Coordinator) ProcessRequest(ctx context.Context, text string) (string, error) {
	if atomic.LoadInt32(&c.shuttingDown) == 1 {
		return "", core.Wrap("swarm.coordinator", "ProcessRequest", "", core.ErrShuttingDown)
	}
	reply := make(chan string, 1)
	select {
	case c.requestCh <- requestItem{text: text, reply: reply}:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	select {
	case id := <-reply:
		return id, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// RegisterShutdownCallback adds fn to the set invoked during Shutdown
// and EmergencyStop, after the drain/stop sequence but before the
// final checkpoint flush.
func (c *Coordinator) RegisterShutdownCallback(fn func()) {
	c.shutdownMu.Lock()
	defer c.shutdownMu.Unlock()
	c.shutdownCallbacks = append(c.shutdownCallbacks, fn)
}

// Metrics returns a point-in-time snapshot (SPEC_FULL.md §9).
func (c *Coordinator) Metrics() Metrics {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var avg time.Duration
	if len(c.taskTimes) > 0 {
		var sum time.Duration
		for _, d := range c.taskTimes {
			sum += d
		}
		avg = sum / time.Duration(len(c.taskTimes))
	}
	return Metrics{
		TotalTasks:      atomic.LoadInt64(&c.totalTasks),
		CompletedTasks:  atomic.LoadInt64(&c.completedTasks),
		FailedTasks:     atomic.LoadInt64(&c.failedTasks),
		AvgTaskTime:     avg,
		ActiveAgents:    len(c.rt.ListAgents()),
		RecoveryCount:   atomic.LoadInt64(&c.recoveryCount),
		AutoScaleEvents: atomic.LoadInt64(&c.autoScaleEvents),
	}
}

// Run launches the seven concurrent loops plus the checkpoint ticker
// and blocks until ctx is cancelled or Shutdown/EmergencyStop is
// called, then calls Shutdown, which returns at once when a shutdown
// or emergency stop has already run (spec §4.9, §5).
func (c *Coordinator) Run(ctx context.Context) error {
	if cp, err := c.restoreCheckpoint(ctx); err != nil {
		c.logger.Warn("checkpoint restore failed", map[string]interface{}{"error": err.Error()})
	} else if cp != nil {
		c.logger.Info("restored checkpoint", map[string]interface{}{"id": cp.ID, "tasks": len(cp.Tasks)})
	}

	loops := []func(context.Context){
		c.intakeLoop,
		c.decompositionLoop,
		c.schedulerLoop,
		c.dispatchLoop,
		c.monitorLoop,
		c.resultHandlingLoop,
		c.loadBalanceAutoscaleLoop,
		c.checkpointLoop,
	}
	for _, loop := range loops {
		c.wg.Add(1)
		go func(l func(context.Context)) {
			defer c.wg.Done()
			l(ctx)
		}(loop)
	}

	select {
	case <-ctx.Done():
	case <-c.stopCh:
	}
	return c.Shutdown(context.Background())
}

// Shutdown stops accepting new tasks, waits for the queue to drain up
// to ShutdownDrainTimeout, stops all agents, and flushes a final
// checkpoint (spec §4.9 "Shutdown").
func (c *Coordinator) Shutdown(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&c.shuttingDown, 0, 1) {
		return nil
	}

	deadline := time.Now().Add(c.cfg.ShutdownDrainTimeout)
	for time.Now().Before(deadline) {
		if c.queue.Len() == 0 && c.inFlightCount() == 0 {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	select {
	case <-c.stopCh:
	default:
		close(c.stopCh)
	}

	for _, id := range c.rt.ListAgents() {
		_ = c.rt.StopAgent(id)
	}

	c.shutdownMu.Lock()
	callbacks := append([]func(){}, c.shutdownCallbacks...)
	c.shutdownMu.Unlock()
	for _, fn := range callbacks {
		fn()
	}

	c.flushCheckpoint(ctx)
	c.wg.Wait()
	return nil
}

// EmergencyStop closes the stop channel, which halts the scheduler and
// every other coordinator loop, runs the registered shutdown callbacks
// and saves a final checkpoint, skipping the normal drain wait. It
// sends no cancel message to the agents and does not stop them.
func (c *Coordinator) EmergencyStop(ctx context.Context) {
	if !atomic.CompareAndSwapInt32(&c.shuttingDown, 0, 1) {
		return
	}
	select {
	case <-c.stopCh:
	default:
		close(c.stopCh)
	}

	c.shutdownMu.Lock()
	callbacks := append([]func(){}, c.shutdownCallbacks...)
	c.shutdownMu.Unlock()
	for _, fn := range callbacks {
		fn()
	}

	c.flushCheckpoint(ctx)
}

func (c *Coordinator) inFlightCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.assignments)
}

// --- intake ---

func (c *Coordinator) intakeLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		case req := <-c.requestCh:
			task := core.NewTask(core.NewID(), fmt.Sprintf("request-%d", time.Now().UnixNano()), req.text, core.TaskGeneral, core.PriorityMedium)
			task.Metadata["decomposable_root"] = true
			c.addTask(task)
			atomic.AddInt64(&c.totalTasks, 1)
			c.dag.AddNode(task.ID, nil)
			select {
			case c.decompositionCh <- task:
			default:
				c.queue.Push(task)
			}
			req.reply <- task.ID
		}
	}
}

func (c *Coordinator) addTask(t *core.Task) {
	c.mu.Lock()
	c.tasks[t.ID] = t
	c.mu.Unlock()
}

func (c *Coordinator) getTask(id string) (*core.Task, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tasks[id]
	return t, ok
}

// GetTask exposes a registered task by id, for cmd/swarmctl's `status`
// command and for tests.
func (c *Coordinator) GetTask(id string) (*core.Task, bool) {
	return c.getTask(id)
}

// --- decomposition ---

func (c *Coordinator) decompositionLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		case task := <-c.decompositionCh:
			c.decompose(ctx, task)
		}
	}
}

func (c *Coordinator) decompose(ctx context.Context, task *core.Task) {
	task.Metadata["decomposed"] = true
	_ = task.Transition(core.StateAnalysing)
	analysis, err := c.cognitive.Analyse(ctx, c.coordAgent, task)
	if err != nil {
		task.Error = err.Error()
		_ = task.Transition(core.StateFailed)
		atomic.AddInt64(&c.failedTasks, 1)
		return
	}
	task.Metadata["analysis"] = map[string]interface{}{
		"type": analysis.Type, "domains": analysis.Domains,
		"required_outputs": analysis.RequiredOutputs, "requires_decompose": analysis.RequiresDecompose,
	}
	if !analysis.RequiresDecompose {
		_ = task.Transition(core.StatePlanning)
		c.queue.Push(task)
		return
	}

	_ = task.Transition(core.StatePlanning)
	subtasks, err := c.cognitive.Decompose(ctx, task, analysis)
	if err != nil || len(subtasks) == 0 {
		c.queue.Push(task)
		return
	}

	nameToID := make(map[string]string, len(subtasks))
	children := make([]*core.Task, 0, len(subtasks))
	for _, st := range subtasks {
		child := core.NewTask(core.NewID(), st.Name, st.Description, core.TaskImplementation, task.Priority)
		child.ParentTaskID = task.ID
		child.Metadata["required_agent_type"] = st.RequiredAgentType
		nameToID[st.Name] = child.ID
		children = append(children, child)
		task.ChildTaskIDs = append(task.ChildTaskIDs, child.ID)
	}
	for i, st := range subtasks {
		child := children[i]
		for _, depName := range st.Dependencies {
			if depID, ok := nameToID[depName]; ok {
				child.Dependencies = append(child.Dependencies, depID)
			}
		}
		c.addTask(child)
		c.dag.AddNode(child.ID, child.Dependencies)
		atomic.AddInt64(&c.totalTasks, 1)
	}
	if err := c.dag.Validate(); err != nil {
		task.Error = err.Error()
		_ = task.Transition(core.StateFailed)
		atomic.AddInt64(&c.failedTasks, 1)
		return
	}
	for _, child := range children {
		c.queue.Push(child)
	}
}

// --- scheduler ---

func (c *Coordinator) schedulerLoop(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.SchedulerTick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.schedulerTick()
		}
	}
}

func (c *Coordinator) schedulerTick() {
	task, ok := c.queue.Pop()
	if !ok {
		return
	}

	if decomposable, _ := task.Metadata["decomposable_root"].(bool); decomposable {
		if _, tried := task.Metadata["decomposed"]; !tried {
			task.Metadata["decomposed"] = true
			select {
			case c.decompositionCh <- task:
			default:
				c.queue.Push(task)
			}
			return
		}
	}

	if !c.dag.DependenciesSatisfied(task.ID, func(id string) core.TaskState {
		if t, ok := c.getTask(id); ok {
			return t.Snapshot()
		}
		return core.StateFailed
	}) {
		c.queue.PushAfter(task, 2*time.Second)
		return
	}

	candidates := c.buildCandidates()
	agentID, found := SelectAgent(task, candidates, c.agentsCfg.MaxPoolSize)
	if !found {
		c.queue.PushAfter(task, 2*time.Second)
		return
	}
	c.dispatchCh <- dispatchRequest{task: task, agentID: agentID}
}

func (c *Coordinator) buildCandidates() []Candidate {
	snaps := c.rt.GetMetrics()
	candidates := make([]Candidate, 0, len(snaps))
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, s := range snaps {
		agent, ok := c.rt.Agent(s.ID)
		if !ok {
			continue
		}
		avg := 0.0
		if ra, ok := c.validation[s.ID]; ok {
			avg = ra.mean()
		}
		candidates = append(candidates, Candidate{
			AgentID:         s.ID,
			Role:            agent.Role,
			Capabilities:    agent.Capabilities.List(),
			Idle:            s.Status == core.AgentIdle,
			Offline:         s.Status == core.AgentStopped,
			ActiveTaskCount: c.activeLoad[s.ID],
			Completed:       s.Metrics.TasksCompleted,
			Failed:          s.Metrics.TasksFailed,
			AvgValidation:   avg,
		})
	}
	return candidates
}

// --- dispatch ---

func (c *Coordinator) dispatchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		case req := <-c.dispatchCh:
			c.dispatch(req)
		}
	}
}

func (c *Coordinator) dispatch(req dispatchRequest) {
	agent, ok := c.rt.Agent(req.agentID)
	if !ok {
		c.queue.PushAfter(req.task, time.Second)
		return
	}
	if err := req.task.Transition(core.StateAssigned); err != nil {
		return
	}
	req.task.AssignedAgentID = req.agentID

	c.mu.Lock()
	c.assignments[req.task.ID] = req.agentID
	c.activeLoad[req.agentID]++
	c.dispatchedAt[req.task.ID] = time.Now()
	c.mu.Unlock()

	agent.SetStatus(core.AgentBusy)
	_ = c.rt.SendMessage(context.Background(), "swarm/coordinator", req.agentID,
		map[string]interface{}{"task_id": req.task.ID, "task_name": req.task.Name},
		core.PerformativeRequest, req.task.ID)
	agent.Tasks.Push(req.task)
}

// --- monitor ---

func (c *Coordinator) monitorLoop(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.MonitorTick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.monitorTick()
		}
	}
}

const taskTimeout = 300 * time.Second

func (c *Coordinator) monitorTick() {
	c.mu.RLock()
	inFlight := make(map[string]string, len(c.assignments))
	for taskID, agentID := range c.assignments {
		inFlight[taskID] = agentID
	}
	c.mu.RUnlock()

	for taskID, agentID := range inFlight {
		task, ok := c.getTask(taskID)
		if !ok {
			continue
		}
		state := task.Snapshot()
		if state == core.StateCompleted || state == core.StateFailed || state == core.StateCancelled {
			continue // result-handling loop will finalize and clear the assignment
		}

		agent, ok := c.rt.Agent(agentID)
		if !ok || agent.Status() == core.AgentStopped {
			c.recoverFault(task, agentID)
			continue
		}

		c.mu.RLock()
		startedAt, hasStart := c.dispatchedAt[taskID]
		c.mu.RUnlock()
		if hasStart && time.Since(startedAt) > taskTimeout {
			task.Error = "timeout"
			_ = task.Transition(core.StateFailed)
			atomic.AddInt64(&c.failedTasks, 1)
			c.clearAssignment(taskID, agentID)
		}
	}
}

// recoverFault reverts task to pending via the existing failed->pending
// edge (spec §4.9 "Fault recovery": the monitor revokes the assignment
// and re-enqueues; the recovery counter increments).
func (c *Coordinator) recoverFault(task *core.Task, agentID string) {
	_ = task.Transition(core.StateFailed)
	c.clearAssignment(task.ID, agentID)
	if task.CanRetry() {
		if err := task.IncrementRetry(); err == nil {
			c.queue.Push(task)
		}
	}
	atomic.AddInt64(&c.recoveryCount, 1)
}

func (c *Coordinator) clearAssignment(taskID, agentID string) {
	c.mu.Lock()
	delete(c.assignments, taskID)
	delete(c.dispatchedAt, taskID)
	if c.activeLoad[agentID] > 0 {
		c.activeLoad[agentID]--
	}
	c.mu.Unlock()
}

// --- result handling ---

func (c *Coordinator) resultHandlingLoop(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.MonitorTick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.resultHandlingTick(ctx)
		}
	}
}

func (c *Coordinator) resultHandlingTick(ctx context.Context) {
	c.mu.RLock()
	taskIDs := make([]string, 0, len(c.assignments))
	for id := range c.assignments {
		taskIDs = append(taskIDs, id)
	}
	c.mu.RUnlock()

	for _, id := range taskIDs {
		task, ok := c.getTask(id)
		if !ok {
			continue
		}
		c.mu.Lock()
		alreadyDone := c.finalized[id]
		c.mu.Unlock()
		if alreadyDone {
			continue
		}

		switch task.Snapshot() {
		case core.StateValidating:
			c.validateAndFinalize(ctx, task)
		case core.StateCompleted, core.StateFailed, core.StateCancelled:
			c.finalize(task)
		}
	}
}

func (c *Coordinator) validateAndFinalize(ctx context.Context, task *core.Task) {
	solution := &agents.Solution{}
	if s, ok := task.Result["solution"].(string); ok {
		solution.SolutionText = s
	}
	if code, ok := task.Result["code"].(string); ok {
		solution.Code = code
	}

	result, err := c.cognitive.ValidateSolution(ctx, task, solution)
	if err != nil {
		c.retryOrFail(task, err.Error())
		return
	}
	task.ValidationScore = result.Score

	if agentID, ok := c.getAssignment(task.ID); ok {
		c.mu.Lock()
		if ra, ok := c.validation[agentID]; ok {
			ra.add(float64(result.Score))
		} else {
			c.validation[agentID] = &runningAvg{}
			c.validation[agentID].add(float64(result.Score))
		}
		c.mu.Unlock()
	}

	if !result.IsValid {
		c.retryOrFail(task, result.FinalVerdict)
		return
	}
	_ = task.Transition(core.StateCompleted)
	c.finalize(task)
}

func (c *Coordinator) retryOrFail(task *core.Task, reason string) {
	task.Error = reason
	if task.CanRetry() {
		_ = task.Transition(core.StateFailed)
		if err := task.IncrementRetry(); err == nil {
			c.queue.Push(task)
			c.clearAssignmentForTask(task.ID)
			return
		}
	}
	_ = task.Transition(core.StateFailed)
	c.finalize(task)
}

func (c *Coordinator) getAssignment(taskID string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.assignments[taskID]
	return id, ok
}

func (c *Coordinator) clearAssignmentForTask(taskID string) {
	c.mu.RLock()
	agentID := c.assignments[taskID]
	c.mu.RUnlock()
	c.clearAssignment(taskID, agentID)
}

// finalize performs completion bookkeeping shared by every terminal
// path: rolling average task time, load release, sibling/parent
// aggregation, and the root-task final report (spec §4.9 "Result
// handling").
func (c *Coordinator) finalize(task *core.Task) {
	c.mu.Lock()
	if c.finalized[task.ID] {
		c.mu.Unlock()
		return
	}
	c.finalized[task.ID] = true
	if task.StartedAt != nil && task.CompletedAt != nil {
		c.taskTimes = append(c.taskTimes, task.CompletedAt.Sub(*task.StartedAt))
	}
	c.mu.Unlock()

	if task.Snapshot() == core.StateCompleted {
		atomic.AddInt64(&c.completedTasks, 1)
	} else {
		atomic.AddInt64(&c.failedTasks, 1)
	}
	c.clearAssignmentForTask(task.ID)

	if task.ParentTaskID == "" {
		c.emitReportIfRoot(task)
		return
	}
	c.checkParentCompletion(task.ParentTaskID)
}

func (c *Coordinator) checkParentCompletion(parentID string) {
	parent, ok := c.getTask(parentID)
	if !ok {
		return
	}
	allTerminal := true
	anyFailed := false
	var children []*core.Task
	for _, childID := range parent.ChildTaskIDs {
		child, ok := c.getTask(childID)
		if !ok {
			continue
		}
		children = append(children, child)
		if !child.IsTerminal() {
			allTerminal = false
			break
		}
		if child.Snapshot() == core.StateFailed {
			anyFailed = true
		}
	}
	if !allTerminal {
		return
	}
	aggregate := make(map[string]interface{}, len(children))
	for _, child := range children {
		aggregate[child.Name] = child.Result
	}
	parent.Result = aggregate
	if anyFailed {
		_ = parent.Transition(core.StateFailed)
	} else {
		_ = parent.Transition(core.StateCompleted)
	}
	c.finalize(parent)
}

func (c *Coordinator) emitReportIfRoot(task *core.Task) {
	if c.reportDir == "" {
		return
	}
	c.mu.RLock()
	var children []*core.Task
	for _, childID := range task.ChildTaskIDs {
		if child, ok := c.tasks[childID]; ok {
			children = append(children, child)
		}
	}
	c.mu.RUnlock()

	analysis, _ := task.Metadata["analysis"].(map[string]interface{})
	path, err := writeReport(c.reportDir, reportInput{
		Root: task, Children: children, Analysis: analysis,
		ProjectRoot: c.cfg.CheckpointDir, Metrics: c.Metrics(),
	})
	if err != nil {
		c.logger.Warn("report write failed", map[string]interface{}{"task_id": task.ID, "error": err.Error()})
		return
	}
	c.logger.Info("report written", map[string]interface{}{"task_id": task.ID, "path": path})
}

// --- load balance + autoscale ---

func (c *Coordinator) loadBalanceAutoscaleLoop(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.LoadBalanceTick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.loadBalance()
			c.autoscale(ctx)
		}
	}
}

// loadBalance reassigns unstarted queued tasks (still sitting in an
// overloaded agent's task queue, not yet picked up) to an idle agent
// with matching capabilities once load variance crosses a threshold
// (spec §4.9 "Load balancing").
func (c *Coordinator) loadBalance() {
	snaps := c.rt.GetMetrics()
	if len(snaps) < 2 {
		return
	}
	loads := make([]float64, 0, len(snaps))
	c.mu.RLock()
	for _, s := range snaps {
		loads = append(loads, float64(c.activeLoad[s.ID]))
	}
	c.mu.RUnlock()
	if variance(loads) <= 2.0 {
		return
	}

	mean := meanOf(loads)
	var overloaded, idle []string
	c.mu.RLock()
	for _, s := range snaps {
		load := c.activeLoad[s.ID]
		if float64(load) > mean+1 {
			overloaded = append(overloaded, s.ID)
		} else if s.Status == core.AgentIdle {
			idle = append(idle, s.ID)
		}
	}
	c.mu.RUnlock()

	for _, overloadedID := range overloaded {
		if len(idle) == 0 {
			return
		}
		agent, ok := c.rt.Agent(overloadedID)
		if !ok {
			continue
		}
		var pending []*core.Task
		for {
			t, ok := agent.Tasks.Pop()
			if !ok {
				break
			}
			pending = append(pending, t)
		}
		for _, t := range pending {
			if len(idle) == 0 {
				// no more idle capacity; push remaining tasks back to origin
				agent.Tasks.Push(t)
				continue
			}
			targetID := idle[0]
			target, ok := c.rt.Agent(targetID)
			if ok && target.Capabilities.HasAll(requiredCapabilities(t)) {
				target.Tasks.Push(t)
				c.mu.Lock()
				c.assignments[t.ID] = targetID
				c.activeLoad[overloadedID]--
				c.activeLoad[targetID]++
				c.mu.Unlock()
				idle = idle[1:]
			} else {
				agent.Tasks.Push(t)
			}
		}
	}
}

func requiredCapabilities(t *core.Task) []string {
	if kw, ok := typeKeywords[t.Type]; ok && len(kw) > 0 {
		return kw[:1]
	}
	return nil
}

// autoscale applies the scale-up/scale-down thresholds (spec §4.9
// "Auto-scaling").
func (c *Coordinator) autoscale(ctx context.Context) {
	snaps := c.rt.GetMetrics()
	activeAgents := len(snaps)
	queueSize := c.queue.Len()

	if c.spawn != nil && queueSize > activeAgents*5 && activeAgents < c.agentsCfg.MaxPoolSize {
		agent, behavior := c.spawn(c.agentsCfg.DefaultMode)
		if agent != nil {
			if err := c.rt.RegisterAgent(agent, behavior, nil, nil); err == nil {
				_ = c.rt.StartAgent(ctx, agent.ID)
				atomic.AddInt64(&c.autoScaleEvents, 1)
			}
		}
		return
	}

	if c.host == nil {
		return
	}
	cpu := c.host.CurrentCPUPercent()
	if cpu <= c.resCfg.CPUHeadroomPct {
		return
	}
	idleCount := 0
	var idleID string
	for _, s := range snaps {
		if s.Status == core.AgentIdle {
			idleCount++
			idleID = s.ID
		}
	}
	if idleCount > c.agentsCfg.MinPoolSize {
		if err := c.rt.StopAgent(idleID); err == nil {
			atomic.AddInt64(&c.autoScaleEvents, 1)
		}
	}
}

func meanOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func variance(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := meanOf(xs)
	var sum float64
	for _, x := range xs {
		sum += (x - m) * (x - m)
	}
	return sum / float64(len(xs))
}

// --- checkpointing ---

func (c *Coordinator) checkpointLoop(ctx context.Context) {
	if c.store == nil || c.cfg.CheckpointInterval <= 0 {
		return
	}
	ticker := time.NewTicker(c.cfg.CheckpointInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.flushCheckpoint(ctx)
		}
	}
}

func (c *Coordinator) flushCheckpoint(ctx context.Context) {
	if c.store == nil {
		return
	}
	c.mu.RLock()
	tasks := make(map[string]*core.Task, len(c.tasks))
	for id, t := range c.tasks {
		tasks[id] = t
	}
	c.mu.RUnlock()

	states := make(map[string]core.AgentStatus)
	agentMetrics := make(map[string]core.AgentMetrics)
	for _, s := range c.rt.GetMetrics() {
		states[s.ID] = s.Status
		agentMetrics[s.ID] = s.Metrics
	}

	cp := &Checkpoint{
		ID: core.NewID(), Name: "swarmmind-coordinator",
		Metrics: c.Metrics(), AgentStates: states, AgentMetrics: agentMetrics,
		Tasks: tasks, ProjectPath: c.cfg.CheckpointDir, Timestamp: time.Now(),
	}
	if err := c.store.Save(ctx, cp); err != nil {
		c.logger.Warn("checkpoint save failed", map[string]interface{}{"error": err.Error()})
	}
}

func (c *Coordinator) restoreCheckpoint(ctx context.Context) (*Checkpoint, error) {
	if c.store == nil {
		return nil, nil
	}
	cp, err := c.store.LoadLatest(ctx)
	if err != nil || cp == nil {
		return cp, err
	}
	c.mu.Lock()
	for id, t := range cp.Tasks {
		if !t.IsTerminal() {
			c.tasks[id] = t
			c.dag.AddNode(id, t.Dependencies)
		}
	}
	c.mu.Unlock()
	for _, t := range cp.Tasks {
		if !t.IsTerminal() {
			c.queue.Push(t)
		}
	}
	atomic.StoreInt64(&c.totalTasks, cp.Metrics.TotalTasks)
	atomic.StoreInt64(&c.completedTasks, cp.Metrics.CompletedTasks)
	atomic.StoreInt64(&c.failedTasks, cp.Metrics.FailedTasks)
	atomic.StoreInt64(&c.recoveryCount, cp.Metrics.RecoveryCount)
	atomic.StoreInt64(&c.autoScaleEvents, cp.Metrics.AutoScaleEvents)
	return cp, nil
}
