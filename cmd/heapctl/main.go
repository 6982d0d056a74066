// Command heapctl inspects firmware memory maps and replays allocation
// scripts against the boot heap.
package main

func main() {
	execute()
}
