// Package scheduler is the state-machine heart of quest.
//
// It owns one runtime state per job name (idle, armed, firing,
// removed), asks internal/schedule for next-run instants, arms
// internal/timer handles, and routes every firing through
// internal/dispatch. It also exposes the operational surface:
// Start/Stop/Run/Add/Remove/List/Get/Pause/Resume.
package scheduler
