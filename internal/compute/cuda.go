//go:build cuda

package compute

/*
#cgo CFLAGS: -I/opt/cuda/include
#cgo LDFLAGS: -L/opt/cuda/lib64 -lcudart
#include <cuda_runtime.h>

static int cuda_device_count() {
	int count = 0;
	if (cudaGetDeviceCount(&count) != cudaSuccess) {
		cudaGetLastError();
		return 0;
	}
	return count;
}

static const char* cuda_device_name(int dev) {
	static struct cudaDeviceProp prop;
	if (cudaGetDeviceProperties(&prop, dev) != cudaSuccess) {
		return "";
	}
	return prop.name;
}

static void* cuda_malloc(size_t size) {
	void* ptr = NULL;
	cudaMalloc(&ptr, size);
	return ptr;
}

static void cuda_memcpy_h2d(void* dst, const void* src, size_t size) {
	cudaMemcpy(dst, src, size, cudaMemcpyHostToDevice);
}

static void cuda_memcpy_d2h(void* dst, const void* src, size_t size) {
	cudaMemcpy(dst, src, size, cudaMemcpyDeviceToHost);
}
*/
import "C"
import "unsafe"

type CUDA struct {
	available  bool
	deviceName string
}

func NewCUDA() *CUDA {
	count := int(C.cuda_device_count())
	name := ""
	if count > 0 {
		name = C.GoString(C.cuda_device_name(0))
	}
	return &CUDA{
		available:  count > 0,
		deviceName: name,
	}
}

func (c *CUDA) Name() string {
	if c.available {
		return "cuda (" + c.deviceName + ")"
	}
	return "cuda (not available)"
}

func (c *CUDA) Available() bool { return c.available }

func (c *CUDA) Malloc(size int) Ptr {
	return Ptr(C.cuda_malloc(C.size_t(size)))
}

func (c *CUDA) Free(p Ptr) {
	C.cudaFree(unsafe.Pointer(p))
}

func (c *CUDA) MemcpyHtoD(dst Ptr, src []byte) {
	if len(src) == 0 {
		return
	}
	C.cuda_memcpy_h2d(unsafe.Pointer(dst), unsafe.Pointer(&src[0]), C.size_t(len(src)))
}

func (c *CUDA) MemcpyDtoH(dst []byte, src Ptr) {
	if len(dst) == 0 {
		return
	}
	C.cuda_memcpy_d2h(unsafe.Pointer(&dst[0]), unsafe.Pointer(src), C.size_t(len(dst)))
}

func (c *CUDA) LastError() Status {
	return Status(C.cudaGetLastError())
}

func (c *CUDA) ErrorString(s Status) string {
	return C.GoString(C.cudaGetErrorString(C.cudaError_t(s)))
}
