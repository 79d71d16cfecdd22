package report

import (
	"fmt"

	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/host"
	"github.com/shirou/gopsutil/mem"
)

// SysInfo — платформа, модель процессора и объём памяти машины прогона.
type SysInfo struct {
	Platform string
	CPU      string
	RAM      string
}

// CollectSysInfo опрашивает систему; недоступные поля остаются "unknown".
func CollectSysInfo() SysInfo {
	si := SysInfo{Platform: "unknown", CPU: "unknown", RAM: "unknown"}
	if hostStat, err := host.Info(); err == nil && hostStat.Platform != "" {
		si.Platform = hostStat.Platform
	}
	if cpuStat, err := cpu.Info(); err == nil && len(cpuStat) > 0 && cpuStat[0].ModelName != "" {
		si.CPU = cpuStat[0].ModelName
	}
	if vmStat, err := mem.VirtualMemory(); err == nil {
		si.RAM = fmt.Sprintf("%d GB", vmStat.Total/1024/1024/1024)
	}
	return si
}
