// Package session binds session stores to named files on disk.
//
// # Files
//
// A session named "me" lives at <workdir>/me.session, one SQLite file per
// identity. Names may not contain path separators.
//
// # Lifecycle
//
//	absent   --Open-->   Create at latest version      --VACUUM-->  open
//	existing --Open-->   Migrate to latest version     --VACUUM-->  open
//	open     --Delete--> file removed                               absent
//
// Open compacts the file with VACUUM every time it succeeds, whether or not
// any migration ran. This is a fixed policy: open cost grows with file size in
// exchange for bounded growth and defragmentation.
//
// Delete on a session whose file is missing returns ErrNotFound and changes
// nothing. There is no separate closed state; Close only releases the handle.
//
// # Usage
//
//	mgr, err := session.NewManager(session.Config{Workdir: dir}, logger, nil)
//	sess, err := mgr.Open(ctx, "me")
//	defer sess.Close()
//	info, err := sess.Store().SessionInfo(ctx)
package session
