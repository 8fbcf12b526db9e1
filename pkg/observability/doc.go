/*
Package observability turns editor lifecycle hooks into Prometheus collectors
and structured log lines.

Both producers return a domain.LifecycleHooks value so they can be combined
with Merge and handed to umlpad.WithLifecycleHooks.
*/
package observability
