// Package install implements the installation state machine: an ordered
// sequence of provisioning steps that report granular progress, tolerate
// partial failure, and never silently continue past a broken step.
//
// A [Pipeline] runs [Step] values one at a time against a shared [Context].
// Steps communicate through [State] (write-before-read facts) and emit
// progress through a [progress.Sink]. A failed run is restarted from the
// beginning: step side effects such as user creation and key generation
// are not guaranteed idempotent, so there is no resume and no rollback.
package install
