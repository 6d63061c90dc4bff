package service

import "errors"

// 业务错误均可由调用方恢复，不会导致进程退出；
// 校验先于任何修改，出错时快照不会被写入。
var (
	ErrInvalidCredentials  = errors.New("用户名或密码错误")
	ErrInvalidInput        = errors.New("请填写有效的转账信息")
	ErrSourceNotFound      = errors.New("转出账户不存在")
	ErrDestinationNotFound = errors.New("收款账户不存在")
	ErrInsufficientFunds   = errors.New("余额不足")
	ErrCardNotFound        = errors.New("银行卡不存在")
	ErrSourceNotOwned      = errors.New("转出账户不属于当前用户")
	ErrNotLoggedIn         = errors.New("请先登录")
)
