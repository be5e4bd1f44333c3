//go:build !cuda

package compute

type CUDA struct{}

func NewCUDA() *CUDA {
	return &CUDA{}
}

func (c *CUDA) Name() string    { return "cuda (not available)" }
func (c *CUDA) Available() bool { return false }

func (c *CUDA) Malloc(size int) Ptr            { return 0 }
func (c *CUDA) Free(p Ptr)                     {}
func (c *CUDA) MemcpyHtoD(dst Ptr, src []byte) {}
func (c *CUDA) MemcpyDtoH(dst []byte, src Ptr) {}
func (c *CUDA) LastError() Status              { return StatusNoDevice }
func (c *CUDA) ErrorString(s Status) string    { return statusString(s) }
