package zinc

import "math"

// quaternionToMatrixCore converts a (w, x, y, z) quaternion source into a
// 4 x 4 homogeneous transformation matrix, row-major with the rotation in
// the upper-left 3 x 3. The quaternion is normalised first.
type quaternionToMatrixCore struct{}

func (quaternionToMatrixCore) TypeName() string { return "quaternion_to_matrix" }

func (quaternionToMatrixCore) Compare(other FieldCore) bool {
	_, ok := other.(quaternionToMatrixCore)
	return ok
}

func (quaternionToMatrixCore) Evaluate(cache *Fieldcache, field *Field, valueCache *FieldValueCache) error {
	source, err := field.sourceFields[0].Evaluate(cache)
	if err != nil {
		return err
	}
	w := source.Values[0]
	x := source.Values[1]
	y := source.Values[2]
	z := source.Values[3]
	magnitude := math.Sqrt(w*w + x*x + y*y + z*z)
	if magnitude == 0.0 {
		return ErrNotDefinedAtLocation
	}
	w /= magnitude
	x /= magnitude
	y /= magnitude
	z /= magnitude
	out := valueCache.Values
	out[0] = 1.0 - 2.0*y*y - 2.0*z*z
	out[1] = 2.0*x*y + 2.0*w*z
	out[2] = 2.0*x*z - 2.0*w*y
	out[3] = 0.0
	out[4] = 2.0*x*y - 2.0*w*z
	out[5] = 1.0 - 2.0*x*x - 2.0*z*z
	out[6] = 2.0*y*z + 2.0*w*x
	out[7] = 0.0
	out[8] = 2.0*x*z + 2.0*w*y
	out[9] = 2.0*y*z - 2.0*w*x
	out[10] = 1.0 - 2.0*x*x - 2.0*y*y
	out[11] = 0.0
	out[12] = 0.0
	out[13] = 0.0
	out[14] = 0.0
	out[15] = 1.0
	return nil
}

// matrixToQuaternionCore recovers the (w, x, y, z) quaternion from a 4 x 4
// homogeneous transformation matrix source, reading the rotation from the
// upper-left 3 x 3 by the largest-pivot branch of Shepperd's method.
type matrixToQuaternionCore struct{}

func (matrixToQuaternionCore) TypeName() string { return "matrix_to_quaternion" }

func (matrixToQuaternionCore) Compare(other FieldCore) bool {
	_, ok := other.(matrixToQuaternionCore)
	return ok
}

func (matrixToQuaternionCore) Evaluate(cache *Fieldcache, field *Field, valueCache *FieldValueCache) error {
	source, err := field.sourceFields[0].Evaluate(cache)
	if err != nil {
		return err
	}
	m := source.Values
	out := valueCache.Values
	trace := m[0] + m[5] + m[10]
	switch {
	case trace > 0.0:
		s := 2.0 * math.Sqrt(trace+1.0)
		out[0] = 0.25 * s
		out[1] = (m[6] - m[9]) / s
		out[2] = (m[8] - m[2]) / s
		out[3] = (m[1] - m[4]) / s
	case m[0] > m[5] && m[0] > m[10]:
		s := 2.0 * math.Sqrt(1.0+m[0]-m[5]-m[10])
		out[0] = (m[6] - m[9]) / s
		out[1] = 0.25 * s
		out[2] = (m[1] + m[4]) / s
		out[3] = (m[8] + m[2]) / s
	case m[5] > m[10]:
		s := 2.0 * math.Sqrt(1.0+m[5]-m[0]-m[10])
		out[0] = (m[8] - m[2]) / s
		out[1] = (m[1] + m[4]) / s
		out[2] = 0.25 * s
		out[3] = (m[6] + m[9]) / s
	default:
		s := 2.0 * math.Sqrt(1.0+m[10]-m[0]-m[5])
		out[0] = (m[1] - m[4]) / s
		out[1] = (m[8] + m[2]) / s
		out[2] = (m[6] + m[9]) / s
		out[3] = 0.25 * s
	}
	return nil
}
