package locator

import "fmt"

// defaultFallbackPorts lists bound RFCOMM channels first, then USB-serial and
// CDC-ACM devices.
func defaultFallbackPorts() []string {
	var ports []string
	for _, prefix := range []string{"/dev/rfcomm", "/dev/ttyUSB", "/dev/ttyACM"} {
		for i := 0; i < 10; i++ {
			ports = append(ports, fmt.Sprintf("%s%d", prefix, i))
		}
	}
	return ports
}
