package metrics

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v3/mem"

	"github.com/yash-surviantllc/FixRx-sub003/src/core/ports"
)

// HostSampler reads host memory usage through gopsutil.
type HostSampler struct{}

var _ ports.HostSampler = HostSampler{}

// MemoryUsedPercent returns the share of physical memory in use.
func (HostSampler) MemoryUsedPercent(ctx context.Context) (float64, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read memory stats: %w", err)
	}
	return vm.UsedPercent, nil
}
