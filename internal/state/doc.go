// Package state manages the local persisted state of a working copy.
//
// Everything lives below the hidden .vcsmeta directory at the root of the
// working tree:
//
//	.vcsmeta/config              branch binding (properties file)
//	.vcsmeta/branches/<branch>/  snapshot mirror of the last synced remote state
//	.vcsmeta/tmp/staging/        scratch area used while pulling
//
// Key concepts:
//   - Layout: resolves the paths above for one working tree
//   - Binding: the {projectId, branch, orgId} triple a working tree is bound to
//   - BindingStore: loads and saves the binding atomically
package state
