package config

import (
	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

// UnknownDevice is the device id used when the machine id is unavailable.
const UnknownDevice = "unknown"

// MachineID retrieves the unique ID identifying the machine.
func MachineID() string {
	id, err := machineid.ID()
	if err != nil {
		glog.Warningf("machine id: %v", err)
		return UnknownDevice
	}
	return id
}
