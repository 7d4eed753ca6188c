// Package schedule provides schedule parsing and next-trigger calculation.
//
// A job's schedule is one of four forms: a cron expression, a recurring
// interval, a one-shot timeout, or an absolute date. The forms are a closed
// set of Spec implementations so a descriptor can never carry two of them
// at once. NextRun resolves a Spec to the next run instant relative to a
// caller-supplied "now"; failure is always an explicit error, never a
// default "run now".
package schedule
