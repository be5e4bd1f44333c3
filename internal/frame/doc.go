// Package frame holds one simulation snapshot of N bodies and manages its
// memory in either of two ownership modes.
//
// Reading a catalogue yields [Particles]: the index-aligned bodies and
// velocities buffers. The driver then promotes them into exactly one
// [Frame]:
//
//   - [HostFrame]: accelerations live in a host buffer
//   - [DeviceFrame]: bodies, velocities and accelerations are mirrored in
//     device memory, with no host accelerations buffer
//
// The mode is fixed by the constructor, so a frame with both or neither set
// of acceleration buffers cannot exist. [Free] is the single teardown path
// for both modes.
//
// # Example
//
//	p, err := frameio.Read("catalogue.dat", n, alloc)
//	fr, err := frame.NewDeviceFrame(p, rt)
//	err = fr.Upload()
//	// ... integrate on the device ...
//	err = fr.Download()
//	err = frame.Free(fr)
package frame
