// Package dynamo provides the core value types shared by the frame store.
//
//   - [Vec4]: the 4-wide particle vector, laid out like the accelerator's float4
//   - [FatalError]: the single error type every fallible operation returns
//
// A [Vec4] is read as (mass, x, y, z) in a bodies buffer and as
// (unused, x, y, z) in velocity and acceleration buffers, so all three
// buffers share one layout and can be moved to the device with a single
// bulk copy each.
//
// # Failure policy
//
// Nothing in this module is retried. Allocation, I/O, format and
// accelerator failures are reported as a [FatalError] and end the run at
// the outermost caller:
//
//	if err != nil {
//		log.Error().Msg(err.Error())
//		os.Exit(dynamo.ExitCode(err))
//	}
package dynamo
