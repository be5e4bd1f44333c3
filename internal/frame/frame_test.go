package frame_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/nbody/internal/compute"
	"github.com/san-kum/nbody/internal/dynamo"
	"github.com/san-kum/nbody/internal/frame"
	"github.com/san-kum/nbody/internal/memory"
)

func seed(p *frame.Particles) {
	for i := range p.Bodies() {
		f := float32(i + 1)
		p.Bodies()[i] = dynamo.Vec4{X: f, Y: -f, Z: 2 * f, W: 10 * f}
		p.Velocities()[i] = dynamo.Vec4{X: 0.5 * f, Y: 0.25, Z: -f}
	}
}

var _ = Describe("Particles", func() {
	var alloc *memory.Host

	BeforeEach(func() {
		alloc = memory.NewHost(0)
	})

	It("allocates equal-length bodies and velocities", func() {
		p, err := frame.NewParticles(alloc, 5)
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Len()).To(Equal(5))
		Expect(p.Velocities()).To(HaveLen(5))
		Expect(alloc.LiveLabels()).To(Equal([]string{"frame bodys", "frame vels"}))
	})

	It("rejects a non-positive body count without leaking", func() {
		_, err := frame.NewParticles(alloc, 0)
		Expect(dynamo.IsKind(err, dynamo.KindResource)).To(BeTrue())
		Expect(alloc.Live()).To(BeZero())
	})

	It("releases bodies when the velocities allocation fails", func() {
		limited := memory.NewHost(int64(3 * dynamo.Vec4Size))
		_, err := frame.NewParticles(limited, 2)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("frame vels"))
		Expect(limited.Live()).To(BeZero())
	})

	It("rejects slices of different lengths", func() {
		bodies, _ := alloc.Vec4s("b", 3)
		vels, _ := alloc.Vec4s("v", 2)
		_, err := frame.FromSlices(alloc, bodies, vels)
		Expect(err).To(MatchError(dynamo.ErrLengthMismatch))
	})

	It("can be released once before promotion", func() {
		p, _ := frame.NewParticles(alloc, 2)
		Expect(p.Release()).To(Succeed())
		Expect(p.Release()).To(MatchError(dynamo.ErrFreed))
		Expect(alloc.Live()).To(BeZero())

		_, err := frame.NewHostFrame(p)
		Expect(err).To(MatchError(dynamo.ErrFreed))
	})
})

var _ = Describe("HostFrame", func() {
	var (
		alloc *memory.Host
		p     *frame.Particles
	)

	BeforeEach(func() {
		alloc = memory.NewHost(0)
		var err error
		p, err = frame.NewParticles(alloc, 4)
		Expect(err).NotTo(HaveOccurred())
	})

	It("allocates host accelerations of the same length", func() {
		fr, err := frame.NewHostFrame(p)
		Expect(err).NotTo(HaveOccurred())
		Expect(fr.Mode()).To(Equal(dynamo.HostMode))
		Expect(fr.Accelerations()).To(HaveLen(4))
		Expect(alloc.LiveLabels()).To(Equal([]string{"frame accels", "frame bodys", "frame vels"}))
	})

	It("frees exactly bodies, velocities and accelerations", func() {
		fr, _ := frame.NewHostFrame(p)
		Expect(frame.Free(fr)).To(Succeed())

		st := alloc.Stats()
		Expect(st.Frees).To(Equal(3))
		Expect(st.Live).To(BeZero())
	})

	It("reports a second teardown", func() {
		fr, _ := frame.NewHostFrame(p)
		Expect(frame.Free(fr)).To(Succeed())
		Expect(frame.Free(fr)).To(MatchError(dynamo.ErrFreed))
		Expect(alloc.Stats().Frees).To(Equal(3))
	})

	It("cannot share particles with another frame", func() {
		_, err := frame.NewHostFrame(p)
		Expect(err).NotTo(HaveOccurred())

		_, err = frame.NewHostFrame(p)
		Expect(err).To(MatchError(dynamo.ErrAlreadyOwned))
		_, err = frame.NewDeviceFrame(p, compute.NewEmulator(0))
		Expect(err).To(MatchError(dynamo.ErrAlreadyOwned))
		Expect(p.Release()).To(MatchError(dynamo.ErrAlreadyOwned))
	})

	It("leaves particles unowned when accelerations cannot be allocated", func() {
		limited := memory.NewHost(int64(4 * dynamo.Vec4Size))
		lp, err := frame.NewParticles(limited, 2)
		Expect(err).NotTo(HaveOccurred())

		_, err = frame.NewHostFrame(lp)
		Expect(dynamo.IsKind(err, dynamo.KindResource)).To(BeTrue())
		Expect(lp.Release()).To(Succeed())
		Expect(limited.Live()).To(BeZero())
	})
})

var _ = Describe("DeviceFrame", func() {
	var (
		alloc *memory.Host
		emu   *compute.Emulator
		p     *frame.Particles
	)

	BeforeEach(func() {
		alloc = memory.NewHost(0)
		emu = compute.NewEmulator(0)
		var err error
		p, err = frame.NewParticles(alloc, 3)
		Expect(err).NotTo(HaveOccurred())
		seed(p)
	})

	It("allocates three device buffers and no host accelerations", func() {
		fr, err := frame.NewDeviceFrame(p, emu)
		Expect(err).NotTo(HaveOccurred())
		Expect(fr.Mode()).To(Equal(dynamo.DeviceMode))
		Expect(emu.Live()).To(Equal(3))
		Expect(emu.LiveBytes()).To(Equal(int64(3 * 3 * dynamo.Vec4Size)))
		Expect(alloc.LiveLabels()).To(Equal([]string{"frame bodys", "frame vels"}))

		b, v, a := fr.Pointers()
		Expect(b).NotTo(BeZero())
		Expect(v).NotTo(BeZero())
		Expect(a).NotTo(BeZero())
	})

	It("mirrors bodies and velocities through the device", func() {
		fr, _ := frame.NewDeviceFrame(p, emu)
		want := append([]dynamo.Vec4(nil), fr.Bodies()...)
		wantVel := append([]dynamo.Vec4(nil), fr.Velocities()...)

		Expect(fr.Upload()).To(Succeed())
		b, _, _ := fr.Pointers()
		raw, ok := emu.Peek(b, 3*dynamo.Vec4Size)
		Expect(ok).To(BeTrue())
		Expect(raw).To(Equal(dynamo.Vec4Bytes(want)))

		for i := range fr.Bodies() {
			fr.Bodies()[i] = dynamo.Vec4{}
			fr.Velocities()[i] = dynamo.Vec4{}
		}
		Expect(fr.Download()).To(Succeed())
		Expect(fr.Bodies()).To(Equal(want))
		Expect(fr.Velocities()).To(Equal(wantVel))
	})

	It("transfers accelerations only on request", func() {
		fr, _ := frame.NewDeviceFrame(p, emu)
		acc := []dynamo.Vec4{{X: 1}, {Y: 2}, {Z: 3}}
		Expect(fr.UploadAccelerations(acc)).To(Succeed())

		got := make([]dynamo.Vec4, 3)
		Expect(fr.DownloadAccelerations(got)).To(Succeed())
		Expect(got).To(Equal(acc))

		Expect(fr.DownloadAccelerations(make([]dynamo.Vec4, 2))).To(MatchError(dynamo.ErrLengthMismatch))
	})

	It("frees host pair and device buffers without touching host accelerations", func() {
		fr, _ := frame.NewDeviceFrame(p, emu)
		Expect(frame.Free(fr)).To(Succeed())

		Expect(alloc.Stats().Frees).To(Equal(2))
		Expect(alloc.Live()).To(BeZero())
		Expect(emu.Live()).To(BeZero())

		frees := 0
		for _, op := range emu.Calls() {
			if op == compute.OpFree {
				frees++
			}
		}
		Expect(frees).To(Equal(3))
		Expect(frame.Free(fr)).To(MatchError(dynamo.ErrFreed))
		Expect(fr.Upload()).To(MatchError(dynamo.ErrFreed))
	})

	It("rolls back device buffers when an allocation fails", func() {
		limited := compute.NewEmulator(int64(2 * 3 * dynamo.Vec4Size))
		_, err := frame.NewDeviceFrame(p, limited)
		Expect(dynamo.IsKind(err, dynamo.KindResource)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("dev accels"))
		Expect(limited.Live()).To(BeZero())

		fr, err := frame.NewDeviceFrame(p, emu)
		Expect(err).NotTo(HaveOccurred())
		Expect(fr.Free()).To(Succeed())
	})

	It("joins rollback failures to the allocation error", func() {
		limited := compute.NewEmulator(int64(2 * 3 * dynamo.Vec4Size))
		limited.FailNext(compute.OpFree, compute.StatusInvalidDevicePointer)

		_, err := frame.NewDeviceFrame(p, limited)
		Expect(dynamo.IsKind(err, dynamo.KindResource)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("dev accels"))
		Expect(err.Error()).To(ContainSubstring("dev bodys"))
		Expect(limited.Live()).To(Equal(1))
		Expect(p.Release()).To(Succeed())
	})

	It("reports a failed transfer with its label", func() {
		fr, _ := frame.NewDeviceFrame(p, emu)
		emu.FailNext(compute.OpHtoD, compute.StatusInvalidValue)

		err := fr.Upload()
		Expect(dynamo.IsKind(err, dynamo.KindAccelerator)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("bodys to device"))
		Expect(fr.Free()).To(Succeed())
	})
})
