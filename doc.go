// gitrewrite provides the primitives for rewriting the commit messages of a
// linear git history while keeping every commit's content tree untouched.
//
// [GetLinearHistory] walks a branch tip back along first parents and returns
// the commits oldest first. [RewriteLinearHistory] replays such a history into
// a [storer.Storer], substituting messages according to a slice of [Decision]
// and rewiring parent pointers, so that each rebuilt commit points at the
// commit rebuilt just before it.
//
// See the rewriter package for the engine that decides which messages to
// replace, and the repo package for applying a rewrite to an actual
// repository.
package gitrewrite
