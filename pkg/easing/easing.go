// Package easing provides easing curves used to pace the fold animation.
//
// Every curve maps value in [0, 1] onto [start, end]; values outside that
// range extrapolate.
package easing

// Func is the common signature of all curves.
type Func func(start, end, value float32) float32

// Linear interpolates without easing.
func Linear(start, end, value float32) float32 {
	return start + (end-start)*value
}

// InCubic accelerates from zero velocity.
func InCubic(start, end, value float32) float32 {
	end -= start
	return end*value*value*value + start
}

// OutCubic decelerates to zero velocity.
func OutCubic(start, end, value float32) float32 {
	value--
	end -= start
	return end*(value*value*value+1) + start
}

// InOutCubic accelerates until halfway, then decelerates.
func InOutCubic(start, end, value float32) float32 {
	value /= 0.5
	end -= start
	if value < 1 {
		return end*0.5*value*value*value + start
	}
	value -= 2
	return end*0.5*(value*value*value+2) + start
}

// InQuint accelerates from zero velocity.
func InQuint(start, end, value float32) float32 {
	end -= start
	return end*pow5(value) + start
}

// OutQuint decelerates to zero velocity.
func OutQuint(start, end, value float32) float32 {
	value--
	end -= start
	return end*(pow5(value)+1) + start
}

// InOutQuint accelerates until halfway, then decelerates.
func InOutQuint(start, end, value float32) float32 {
	value /= 0.5
	end -= start
	if value < 1 {
		return end*0.5*pow5(value) + start
	}
	value -= 2
	return end*0.5*(pow5(value)+2) + start
}

func pow5(v float32) float32 {
	return v * v * v * v * v
}
