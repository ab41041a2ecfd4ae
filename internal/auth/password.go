package auth

import "golang.org/x/crypto/bcrypt"

// bcryptCost 固定使用默认成本，登录路径上每次校验都要付这笔 CPU。
const bcryptCost = bcrypt.DefaultCost

// HashPassword 使用 bcrypt 生成密码哈希，明文不做任何持久化。
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// CheckPasswordHash 校验密码是否匹配哈希，绝不比较明文。
func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
