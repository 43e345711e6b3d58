// Package orchestrator applies scaling decisions to the container
// runtime.
//
// Core types:
//
//   - [Client]: the replica-count surface the control loop needs
//   - [DockerClient]: a Client shelling out to the docker CLI, compose
//     subcommands in compose mode and service subcommands in swarm mode
//   - [Reconciler]: applies a tick's decisions under a bounded pool with
//     exponential backoff for transient failures
//   - [Result]: the per-service outcome, never aborting siblings
//
// SetReplicas returns once the runtime acknowledges the request;
// convergence is asynchronous and observed through LiveEndpoints on the
// following ticks.
package orchestrator
