package locator

import "fmt"

// defaultFallbackPorts lists the conventional COM port names.
func defaultFallbackPorts() []string {
	ports := make([]string, 0, 19)
	for i := 1; i <= 19; i++ {
		ports = append(ports, fmt.Sprintf("COM%d", i))
	}
	return ports
}
